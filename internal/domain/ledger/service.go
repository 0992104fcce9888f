package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const mirrorDisabledReason = "mirror disabled"

// Service handles member registry operations over the persisted document.
type Service struct {
	store    Store
	mirror   Mirror
	recorder Recorder
	logger   *slog.Logger
}

// NewService creates a new ledger service. mirror, recorder and logger may
// be nil.
func NewService(store Store, mirror Mirror, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{store: store, mirror: mirror, recorder: recorder, logger: logger}
}

// State returns the computed view of the current document.
func (s *Service) State(ctx context.Context) (resp *Response, err error) {
	defer s.observe(ctx, "state", time.Now(), &err)

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	out := Compute(doc)
	return &out, nil
}

// UpdateParameters applies the supplied parameters and leaves the rest.
func (s *Service) UpdateParameters(ctx context.Context, patch ParametersPatch) (resp *Response, err error) {
	defer s.observe(ctx, "update_parameters", time.Now(), &err)

	doc, err := s.store.Update(ctx, func(doc *Document) error {
		if v, ok := ParameterValue(patch.S); ok {
			doc.S = v
		}
		if v, ok := ParameterValue(patch.P); ok {
			doc.P = v
		}
		if v, ok := ParameterValue(patch.C); ok {
			doc.C = v
		}
		if v, ok := ParameterValue(patch.H); ok {
			doc.H = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating parameters: %w", err)
	}
	out := Compute(doc)
	return &out, nil
}

// Add appends a new member with a freshly allocated id.
func (s *Service) Add(ctx context.Context, in MemberInput) (resp *Response, err error) {
	defer s.observe(ctx, "add", time.Now(), &err)

	name := NormalizeName(in.Name.String())
	hours, err := CoerceHours(in.Hours)
	if err != nil {
		return nil, err
	}

	var added Member
	doc, err := s.store.Update(ctx, func(doc *Document) error {
		added = doc.appendMember(name, hours)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adding member: %w", err)
	}
	s.debug(ctx, "member added", "id", added.ID, "name", added.Name, "hours", added.Hours)

	out := Compute(doc)
	return &out, nil
}

// Submit records hours for the member with the given name, creating the
// member when no name matches, then forwards the member's allocation to the
// mirror. The document is saved before the mirror is called, and the mirror
// runs outside the store lock.
func (s *Service) Submit(ctx context.Context, in MemberInput) (result *SubmitResult, err error) {
	defer s.observe(ctx, "submit", time.Now(), &err)

	name := NormalizeName(in.Name.String())
	hours, err := CoerceHours(in.Hours)
	if err != nil {
		return nil, err
	}

	var target Member
	doc, err := s.store.Update(ctx, func(doc *Document) error {
		if name != "" {
			if i := doc.IndexByName(name); i >= 0 {
				doc.Members[i].Hours = hours
				target = doc.Members[i]
				return nil
			}
		}
		target = doc.appendMember(name, hours)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submitting hours: %w", err)
	}

	g, v := Allocate(target.Hours, Ratio(doc.Parameters), doc.C)
	payload := Submission{Name: target.Name, Hours: target.Hours, Grams: g, Value: v}

	outcome := MirrorOutcome{Reason: mirrorDisabledReason}
	if s.mirror != nil {
		outcome = s.mirror.Notify(ctx, payload)
	}
	s.debug(ctx, "hours submitted", "id", target.ID, "name", target.Name, "uploaded", outcome.Uploaded, "reason", outcome.Reason)

	return &SubmitResult{
		OK:       true,
		Uploaded: outcome.Uploaded,
		Reason:   outcome.Reason,
		State:    Compute(doc),
		Payload:  payload,
	}, nil
}

// Update changes the name and/or hours of an existing member.
func (s *Service) Update(ctx context.Context, id int64, patch MemberPatch) (resp *Response, err error) {
	defer s.observe(ctx, "update", time.Now(), &err)

	var (
		name  string
		hours float64
	)
	if patch.Name != nil {
		name = NormalizeName(patch.Name.String())
	}
	if patch.Hours != nil {
		hours, err = StrictHours(patch.Hours)
		if err != nil {
			return nil, err
		}
	}

	doc, err := s.store.Update(ctx, func(doc *Document) error {
		i := doc.IndexOf(id)
		if i < 0 {
			return ErrMemberNotFound
		}
		if patch.Name != nil {
			if name == "" {
				name = placeholderName(id)
			}
			doc.Members[i].Name = name
		}
		if patch.Hours != nil {
			doc.Members[i].Hours = hours
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating member %d: %w", id, err)
	}

	out := Compute(doc)
	return &out, nil
}

// Delete removes the member with the given id.
func (s *Service) Delete(ctx context.Context, id int64) (resp *Response, err error) {
	defer s.observe(ctx, "delete", time.Now(), &err)

	doc, err := s.store.Update(ctx, func(doc *Document) error {
		i := doc.IndexOf(id)
		if i < 0 {
			return ErrMemberNotFound
		}
		doc.Members = append(doc.Members[:i], doc.Members[i+1:]...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deleting member %d: %w", id, err)
	}

	out := Compute(doc)
	return &out, nil
}

// Clear removes every member. Parameters and the id counter are kept.
func (s *Service) Clear(ctx context.Context) (resp *Response, err error) {
	defer s.observe(ctx, "clear", time.Now(), &err)

	doc, err := s.store.Update(ctx, func(doc *Document) error {
		doc.Members = []Member{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clearing members: %w", err)
	}

	out := Compute(doc)
	return &out, nil
}

func (s *Service) observe(ctx context.Context, operation string, started time.Time, err *error) {
	if s.recorder == nil {
		return
	}
	s.recorder.Observe(ctx, operation, *err == nil, time.Since(started))
}

func (s *Service) debug(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.DebugContext(ctx, msg, args...)
}

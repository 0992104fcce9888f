package ledger

// MemberInput is the body accepted by add and submit.
type MemberInput struct {
	Name  *Text     `json:"name,omitempty"`
	Hours *Quantity `json:"hours,omitempty"`
}

// MemberPatch is a partial member update. Absent fields are left alone.
type MemberPatch struct {
	Name  *Text     `json:"name,omitempty"`
	Hours *Quantity `json:"hours,omitempty"`
}

// ParametersPatch is a partial parameter update.
type ParametersPatch struct {
	S *Quantity `json:"S,omitempty"`
	P *Quantity `json:"p,omitempty"`
	C *Quantity `json:"c,omitempty"`
	H *Quantity `json:"H,omitempty"`
}

// Submission is the record forwarded to the mirror after a submit.
type Submission struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
	Grams int64   `json:"g"`
	Value int64   `json:"v"`
}

// MirrorOutcome reports whether a submission reached the mirror.
type MirrorOutcome struct {
	Uploaded bool   `json:"uploaded"`
	Reason   string `json:"reason"`
}

// SubmitResult is returned by Submit.
type SubmitResult struct {
	OK       bool       `json:"ok"`
	Uploaded bool       `json:"uploaded"`
	Reason   string     `json:"reason"`
	State    Response   `json:"state"`
	Payload  Submission `json:"payload"`
}

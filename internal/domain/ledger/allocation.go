package ledger

import "math"

// MinUnitCost replaces a zero unit cost in the ratio denominator.
const MinUnitCost = 1e-6

// MemberAllocation is a member annotated with derived grams and value.
type MemberAllocation struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
	Grams int64   `json:"g"`
	Value int64   `json:"v"`
}

// Response is the computed view of a document returned by every operation.
type Response struct {
	S       float64            `json:"S"`
	P       float64            `json:"p"`
	C       float64            `json:"c"`
	H       float64            `json:"H"`
	R       int64              `json:"R"`
	Members []MemberAllocation `json:"members"`
}

// Ratio returns the grams awarded per hour, rounded up.
func Ratio(p Parameters) int64 {
	c := p.C
	if c == 0 {
		c = MinUnitCost
	}
	h := p.H
	if h == 0 {
		h = 1
	}
	denom := c * h
	if denom == 0 {
		return 0
	}
	return ceilInt(p.S * p.P / denom)
}

// Allocate returns the grams and value for hours at the given ratio. Each
// step is rounded up on its own.
func Allocate(hours float64, ratio int64, unitCost float64) (grams, value int64) {
	grams = ceilInt(hours * float64(ratio))
	value = ceilInt(float64(grams) * unitCost)
	return grams, value
}

// Compute derives the full response for doc. It has no side effects.
func Compute(doc *Document) Response {
	ratio := Ratio(doc.Parameters)
	members := make([]MemberAllocation, 0, len(doc.Members))
	for _, m := range doc.Members {
		g, v := Allocate(m.Hours, ratio, doc.C)
		members = append(members, MemberAllocation{
			ID:    m.ID,
			Name:  m.Name,
			Hours: m.Hours,
			Grams: g,
			Value: v,
		})
	}
	return Response{
		S:       doc.S,
		P:       doc.P,
		C:       doc.C,
		H:       doc.H,
		R:       ratio,
		Members: members,
	}
}

// ceilInt rounds x toward positive infinity, saturating at the int64 range.
// Non-finite quotients collapse to zero.
func ceilInt(x float64) int64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	x = math.Ceil(x)
	if x >= math.MaxInt64 {
		return math.MaxInt64
	}
	if x <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(x)
}

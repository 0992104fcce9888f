package mcp

type emptyParams struct{}

type UpdateParametersParams struct {
	S *float64 `json:"S,omitempty" jsonschema:"total pool size"`
	P *float64 `json:"p,omitempty" jsonschema:"share fraction"`
	C *float64 `json:"c,omitempty" jsonschema:"unit cost"`
	H *float64 `json:"H,omitempty" jsonschema:"total hours denominator"`
}

type MemberParams struct {
	Name  string   `json:"name,omitempty" jsonschema:"member name; empty names get a placeholder"`
	Hours *float64 `json:"hours,omitempty" jsonschema:"hours contributed"`
}

type UpdateMemberParams struct {
	ID    int64    `json:"id" jsonschema:"member id"`
	Name  *string  `json:"name,omitempty" jsonschema:"new name"`
	Hours *float64 `json:"hours,omitempty" jsonschema:"new hours, between 0 and 10000000"`
}

type DeleteMemberParams struct {
	ID int64 `json:"id" jsonschema:"member id"`
}

package ledger

import "strconv"

// Parameters are the four tunable inputs of the allocation formula.
type Parameters struct {
	S float64 `json:"S"`
	P float64 `json:"p"`
	C float64 `json:"c"`
	H float64 `json:"H"`
}

// Member is a contributor and the hours they have logged.
type Member struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// Document is the persisted aggregate: parameters, members in insertion
// order and the id counter.
type Document struct {
	Parameters
	NextID  int64    `json:"nextId"`
	Members []Member `json:"members"`
}

// DefaultDocument returns the seed document used when no valid state exists.
func DefaultDocument() *Document {
	return &Document{
		Parameters: Parameters{S: 600, P: 0.5, C: 0.045, H: 150},
		NextID:     4,
		Members: []Member{
			{ID: 1, Name: "张三", Hours: 5},
			{ID: 2, Name: "李四", Hours: 8},
			{ID: 3, Name: "王五", Hours: 10},
		},
	}
}

// AllocateID issues the next member id. A counter that has fallen to or
// below the highest id in use is moved past it first.
func (d *Document) AllocateID() int64 {
	var maxID int64
	for _, m := range d.Members {
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	if d.NextID <= maxID {
		d.NextID = maxID + 1
	}
	if d.NextID < 1 {
		d.NextID = 1
	}
	id := d.NextID
	d.NextID++
	return id
}

// IndexOf returns the position of the member with id, or -1.
func (d *Document) IndexOf(id int64) int {
	for i, m := range d.Members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// IndexByName returns the position of the first member whose normalized
// name equals name, or -1.
func (d *Document) IndexByName(name string) int {
	for i, m := range d.Members {
		if NormalizeName(m.Name) == name {
			return i
		}
	}
	return -1
}

func (d *Document) appendMember(name string, hours float64) Member {
	id := d.AllocateID()
	if name == "" {
		name = placeholderName(id)
	}
	m := Member{ID: id, Name: name, Hours: hours}
	d.Members = append(d.Members, m)
	return m
}

func placeholderName(id int64) string {
	return "成员" + strconv.FormatInt(id, 10)
}

package document

// Op is the kind of change an instruction applies to the index.
type Op int

const (
	// OpUpsert writes the full document.
	OpUpsert Op = iota + 1
	// OpDelete removes the document; an absent document is not an error.
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpUpsert:
		return "upsert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Instruction is the outcome of mapping an entity.
type Instruction struct {
	Op   Op
	ID   string
	Type Type
	Doc  Document // zero for OpDelete
}

// Upsert creates an upsert instruction for d.
func Upsert(d Document) Instruction {
	return Instruction{Op: OpUpsert, ID: d.ID(), Type: d.Type(), Doc: d}
}

// Delete creates a delete instruction.
func Delete(id string, t Type) Instruction {
	return Instruction{Op: OpDelete, ID: id, Type: t}
}

// ContributorsPatch is a partial update touching only the contributors field.
type ContributorsPatch struct {
	ID           string
	Type         Type
	Contributors []Contributor
}

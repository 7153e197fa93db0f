package dbobj

// Model is implemented by types that know which table they map to.
type Model interface {
	GetTableDef() TableDef
}

type genericModel struct {
	tableDef TableDef
}

func (g genericModel) GetTableDef() TableDef {
	return g.tableDef
}

func CreateGenericModel(tb TableDef) Model {
	return genericModel{
		tableDef: tb,
	}
}

package schema

import "strings"

// Column describes one column of an introspected table.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
	// References holds "table(column)" when the column carries a foreign key.
	References string `json:"references,omitempty"`
}

// Table describes one introspected table with its columns in ordinal order.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Schema is the immutable description of the connected database. It is built
// once per agent instance and shared read-only across requests.
type Schema struct {
	Tables []Table `json:"tables"`
}

func (s Schema) Empty() bool {
	return len(s.Tables) == 0
}

// Render produces the stable textual schema description used for prompting
// and for schema display. The same schema always renders to the same text.
func (s Schema) Render() string {
	if s.Empty() {
		return "(no tables)"
	}

	var builder strings.Builder
	for i, table := range s.Tables {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("Table: " + table.Name + "\n")
		for _, column := range table.Columns {
			builder.WriteString("  " + column.Name + " " + column.Type)
			if !column.Nullable {
				builder.WriteString(" NOT NULL")
			}
			if column.PrimaryKey {
				builder.WriteString(" PRIMARY KEY")
			}
			if column.References != "" {
				builder.WriteString(" REFERENCES " + column.References)
			}
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

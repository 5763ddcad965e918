package scaffold

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strings"
	"text/template"

	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
)

var entityTmpl = template.Must(template.New("entity").Parse(`// Code generated by ekaya-record scaffold. Edit freely.

package {{.Package}}

import (
{{- if .NeedsErr }}
	"fmt"
{{- end }}
{{- if .NeedsTime }}
	"time"
{{- end }}
{{- if or .NeedsErr .NeedsTime }}
{{ end }}
	"github.com/ekaya-inc/ekaya-record/pkg/record"
)

// {{.StructName}}Table is the table backing {{.StructName}}.
const {{.StructName}}Table = "{{.Table}}"

// {{.StructName}}Definition maps {{.StructName}} onto {{.StructName}}Table.
var {{.StructName}}Definition = record.Definition{
	Table:      {{.StructName}}Table,
	PrimaryKey: "{{.PrimaryKey}}",
	Fillable:   []string{ {{- range $i, $f := .Fillable}}{{if $i}}, {{end}}"{{$f}}"{{end -}} },
}

type {{.StructName}} struct {
{{- range .Fields }}
	{{ .Name }} {{ .Type }} ` + "`json:\"{{ .Column }}\" yaml:\"{{ .Column }}\"`" + `
{{- end }}
}

// Map{{.StructName}} converts a {{.Table}} record into a {{.StructName}}.
func Map{{.StructName}}(m *record.Model) ({{.StructName}}, error) {
	var e {{.StructName}}
{{- if .NeedsErr }}
	var err error
{{- end }}
{{- range .Fields }}
{{- if .Reader }}
	if e.{{ .Name }}, err = m.{{ .Reader }}("{{ .Column }}"); err != nil {
		return {{$.StructName}}{}, fmt.Errorf("map {{$.Table}}: %w", err)
	}
{{- else }}
	e.{{ .Name }} = m.Get("{{ .Column }}")
{{- end }}
{{- end }}
	return e, nil
}
`))

// Field is one generated struct field. Reader names the record.Model method
// that converts the column; an empty Reader assigns the raw driver value.
type Field struct {
	Name   string
	Type   string
	Reader string
	Column string
}

type entityData struct {
	Package    string
	Table      string
	StructName string
	PrimaryKey string
	Fillable   []string
	Fields     []Field
	NeedsTime  bool
	NeedsErr   bool
}

// Options controls generation.
type Options struct {
	Package    string
	Table      string
	PrimaryKey string
}

// Generate writes a gofmt-ed Go file declaring an entity struct, its record
// Definition and a Mapper for the given table columns.
func Generate(w io.Writer, opts Options, columns []datasource.ColumnMetadata) error {
	if opts.Table == "" {
		return fmt.Errorf("scaffold: table is required")
	}
	if len(columns) == 0 {
		return fmt.Errorf("scaffold: table %s has no columns", opts.Table)
	}
	if opts.Package == "" {
		opts.Package = "entities"
	}
	if opts.PrimaryKey == "" {
		opts.PrimaryKey = "id"
	}

	data := entityData{
		Package:    opts.Package,
		Table:      opts.Table,
		StructName: StructName(opts.Table),
		PrimaryKey: opts.PrimaryKey,
	}
	for _, col := range columns {
		mapping := lookupType(col.DataType)
		if mapping.goType == "time.Time" {
			data.NeedsTime = true
		}
		if mapping.reader != "" {
			data.NeedsErr = true
		}
		data.Fields = append(data.Fields, Field{
			Name:   FieldName(col.ColumnName),
			Type:   mapping.goType,
			Reader: mapping.reader,
			Column: col.ColumnName,
		})
		if col.ColumnName != opts.PrimaryKey {
			data.Fillable = append(data.Fillable, col.ColumnName)
		}
	}

	var buf bytes.Buffer
	if err := entityTmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("scaffold: render %s: %w", opts.Table, err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("scaffold: format %s: %w", opts.Table, err)
	}

	_, err = w.Write(src)
	return err
}

// StructName returns the singular PascalCase entity name for a table
// ("blog_posts" -> "BlogPost").
func StructName(table string) string {
	return toPascalCase(inflection.Singular(table))
}

// FieldName returns the Go field name for a column ("user_id" -> "UserID").
func FieldName(column string) string {
	name := toPascalCase(column)
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	return name
}

func toPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i := range parts {
		parts[i] = strings.ToUpper(parts[i][:1]) + strings.ToLower(parts[i][1:])
	}
	return strings.Join(parts, "")
}

type typeMapping struct {
	goType string
	reader string
}

var (
	intType    = typeMapping{"int64", "Int64"}
	floatType  = typeMapping{"float64", "Float64"}
	textType   = typeMapping{"string", "Text"}
	boolType   = typeMapping{"bool", "Bool"}
	timeType   = typeMapping{"time.Time", "Time"}
	bytesType  = typeMapping{"[]byte", "Bytes"}
	opaqueType = typeMapping{"any", ""}
)

// sqlTypes maps information schema data types, PostgreSQL and SQL Server, to
// the Go type their record.Model reader produces. Integers of every width
// widen to int64 and exact decimals stay text. Types the drivers decode into
// driver-specific structs (interval, point, json, time of day) are opaque.
var sqlTypes = map[string]typeMapping{
	"smallint":    intType,
	"integer":     intType,
	"int":         intType,
	"bigint":      intType,
	"tinyint":     intType,
	"int2":        intType,
	"int4":        intType,
	"int8":        intType,
	"smallserial": intType,
	"serial":      intType,
	"bigserial":   intType,

	"real":             floatType,
	"double precision": floatType,
	"float":            floatType,
	"float4":           floatType,
	"float8":           floatType,

	"numeric":    textType,
	"decimal":    textType,
	"money":      textType,
	"smallmoney": textType,

	"boolean": boolType,
	"bool":    boolType,
	"bit":     boolType,

	"date":                        timeType,
	"timestamp":                   timeType,
	"timestamp without time zone": timeType,
	"timestamp with time zone":    timeType,
	"timestamptz":                 timeType,
	"datetime":                    timeType,
	"datetime2":                   timeType,
	"smalldatetime":               timeType,
	"datetimeoffset":              timeType,

	"bytea":     bytesType,
	"binary":    bytesType,
	"varbinary": bytesType,
	"image":     bytesType,

	"text":              textType,
	"character varying": textType,
	"varchar":           textType,
	"character":         textType,
	"char":              textType,
	"bpchar":            textType,
	"citext":            textType,
	"name":              textType,
	"nchar":             textType,
	"nvarchar":          textType,
	"ntext":             textType,
	"uuid":              textType,
	"uniqueidentifier":  textType,
}

func lookupType(dataType string) typeMapping {
	t := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if mapping, ok := sqlTypes[t]; ok {
		return mapping
	}
	return opaqueType
}

// GoType maps an information schema data type to the Go type of the
// generated field.
func GoType(dataType string) string {
	return lookupType(dataType).goType
}

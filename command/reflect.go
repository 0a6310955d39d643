// Generate formatters from an annotated structure type using reflection.
//
// ReflectFormattersFromTags generates formatters from the tagged fields on a structure type,
// excluding any field names in an optional blocklist.  A field is annotated with a `desc` tag
// holding its help text and optionally an `alias` tag holding a comma-separated list of
// alternate names; fields without a `desc` tag are not printable.
//
// ReflectFormattersFromMap generates formatters from the fields on a structure type if they
// appear in an allowlist, which also carries the help text and aliases.  This decouples the
// formatting specification from the structure definition.
//
// Both descend into embedded fields.  There must be no duplicates in the union of field names
// and aliases.

package command

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"darsig/darlog"
)

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Print modifiers: a bit vector passed as the formatting context to reflected formatters,
// representing the selected output format.

type PrintMods = int

const (
	PrintModFixed      = 1 << iota // fixed format
	PrintModJson                   // JSON format
	PrintModCsv                    // CSV format
	PrintModCsvNamed               // CSVNamed format
	PrintModAwk                    // AWK format
	PrintModNoDefaults             // Set (for any format) if the option is set
)

func ComputePrintMods(opts *FormatOptions) PrintMods {
	var x PrintMods
	switch {
	case opts.Csv:
		if opts.Named {
			x = PrintModCsvNamed
		} else {
			x = PrintModCsv
		}
	case opts.Json:
		x = PrintModJson
	case opts.Awk:
		x = PrintModAwk
	case opts.Fixed:
		x = PrintModFixed
	}
	if opts.NoDefaults {
		x |= PrintModNoDefaults
	}
	return x
}

var stringerTy = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

func ReflectFormattersFromTags(
	structTy reflect.Type,
	isExcluded map[string]bool,
) (formatters map[string]Formatter[any, PrintMods]) {
	formatters = make(map[string]Formatter[any, PrintMods])
	reflectStructFormatters(
		structTy,
		formatters,
		func(fld reflect.StructField) (ok bool, name, desc string, aliases []string) {
			name = fld.Name
			if isExcluded[name] {
				return
			}
			if a := fld.Tag.Get("alias"); a != "" {
				aliases = strings.Split(a, ",")
				for _, alias := range aliases {
					if isExcluded[alias] {
						return
					}
				}
			}
			desc = fld.Tag.Get("desc")
			if desc == "" {
				return
			}
			ok = true
			return
		},
	)
	return
}

type SimpleFormatSpec struct {
	Desc    string
	Aliases string
}

func ReflectFormattersFromMap(
	structTy reflect.Type,
	fields map[string]any,
) (formatters map[string]Formatter[any, PrintMods]) {
	formatters = make(map[string]Formatter[any, PrintMods])
	reflectStructFormatters(
		structTy,
		formatters,
		func(fld reflect.StructField) (ok bool, name, desc string, aliases []string) {
			name = fld.Name
			if spec, found := fields[name]; found {
				switch s := spec.(type) {
				case SimpleFormatSpec:
					desc = s.Desc
					if s.Aliases != "" {
						aliases = strings.Split(s.Aliases, ",")
					}
					ok = true
				default:
					panic("Invalid FormatSpec")
				}
			}
			return
		},
	)
	return
}

func reflectStructFormatters(
	structTy reflect.Type,
	formatters map[string]Formatter[any, PrintMods],
	admissible func(fld reflect.StructField) (ok bool, name, desc string, aliases []string),
) {
	if structTy.Kind() != reflect.Struct {
		panic("Struct type required")
	}
	for ix, lim := 0, structTy.NumField(); ix < lim; ix++ {
		fld := structTy.Field(ix)
		if fld.Anonymous {
			// Trace through embedded field.  The formatting function will receive the outer
			// structure (or pointer to it), but the formatter generator code operates on the
			// inner struct.  So wrap each generated formatting function in a function that
			// obtains the field value, takes its address if it is not already a pointer, and
			// passes that pointer on.
			fldTy := fld.Type
			mustTakeAddress := false
			if fldTy.Kind() == reflect.Struct {
				mustTakeAddress = true
			} else if fldTy.Kind() == reflect.Pointer && fldTy.Elem().Kind() == reflect.Struct {
				fldTy = fldTy.Elem()
			} else {
				continue
			}
			subFormatters := make(map[string]Formatter[any, PrintMods])
			reflectStructFormatters(fldTy, subFormatters, admissible)
			for name, subFmt := range subFormatters {
				theFmt := subFmt.Fmt
				f := Formatter[any, PrintMods]{
					Help: subFmt.Help,
				}
				if mustTakeAddress {
					f.Fmt = func(d any, mods PrintMods) string {
						val := reflect.Indirect(reflect.ValueOf(d)).Field(ix).Addr()
						return theFmt(val.Interface(), mods)
					}
				} else {
					f.Fmt = func(d any, mods PrintMods) string {
						val := reflect.Indirect(reflect.ValueOf(d)).Field(ix)
						return theFmt(val.Interface(), mods)
					}
				}
				formatters[name] = f
			}
		} else {
			if ok, name, desc, aliases := admissible(fld); ok {
				f := Formatter[any, PrintMods]{
					Help: desc,
					Fmt:  reflectTypeFormatter(ix, fld.Type),
				}
				formatters[name] = f
				for _, a := range aliases {
					formatters[a] = f
				}
			}
		}
	}
}

func reflectTypeFormatter(ix int, ty reflect.Type) func(any, PrintMods) string {
	switch {
	case ty.Kind() == reflect.Slice:
		// Only []string for now.  The elements are sorted before printing, for stable output.
		switch ty.Elem().Kind() {
		case reflect.String:
			return func(d any, _ PrintMods) string {
				vals := reflect.Indirect(reflect.ValueOf(d)).Field(ix)
				lim := vals.Len()
				ss := make([]string, lim)
				for j := 0; j < lim; j++ {
					ss[j] = vals.Index(j).String()
				}
				slices.Sort(ss)
				return strings.Join(ss, ",")
			}
		default:
			panic("NYI")
		}
	case ty.Implements(stringerTy):
		// If it implements fmt.Stringer then use it
		return func(d any, _ PrintMods) string {
			val := reflect.Indirect(reflect.ValueOf(d)).Field(ix)
			return val.MethodByName("String").Call(nil)[0].String()
		}
	default:
		// Everything else is a basic type that is handled according to kind.
		switch ty.Kind() {
		case reflect.Bool:
			return func(d any, _ PrintMods) string {
				val := reflect.Indirect(reflect.ValueOf(d)).Field(ix).Bool()
				return strconv.FormatBool(val)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return func(d any, _ PrintMods) string {
				val := reflect.Indirect(reflect.ValueOf(d)).Field(ix).Int()
				return strconv.FormatInt(val, 10)
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return func(d any, _ PrintMods) string {
				val := reflect.Indirect(reflect.ValueOf(d)).Field(ix).Uint()
				return strconv.FormatUint(val, 10)
			}
		case reflect.Float32, reflect.Float64:
			return func(d any, _ PrintMods) string {
				val := reflect.Indirect(reflect.ValueOf(d)).Field(ix).Float()
				return darlog.FormatFloat(val)
			}
		case reflect.String:
			return func(d any, _ PrintMods) string {
				return reflect.Indirect(reflect.ValueOf(d)).Field(ix).String()
			}
		default:
			panic(fmt.Sprintf("Unhandled type kind %d", ty.Kind()))
		}
	}
}

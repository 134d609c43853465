package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

type structField struct {
	Name  string
	Type  string
	YAML  string
	Env   string
	EnvNS string
	Notes string
}

// section is a top-level key of the config file.
type section struct {
	YAML   string
	EnvNS  string
	Struct string
}

func main() {
	var root string
	var reasonsOut string
	var configOut string
	flag.StringVar(&root, "root", ".", "module root")
	flag.StringVar(&reasonsOut, "reasons-out", "docs/reference/reason-codes.md", "output markdown path for reason codes")
	flag.StringVar(&configOut, "config-out", "docs/reference/configuration.md", "output markdown path for the configuration reference")
	flag.Parse()

	if err := generateReasonCodes(root, filepath.Join(root, reasonsOut)); err != nil {
		fail(err)
	}
	if err := generateConfigReference(root, filepath.Join(root, configOut)); err != nil {
		fail(err)
	}
}

func generateReasonCodes(root, outPath string) error {
	declared, err := collectReasonConsts(filepath.Join(root, "classify", "outcome.go"))
	if err != nil {
		return err
	}

	literal := make(map[string]struct{})
	for _, dir := range []string{"classify", "retry", "guard"} {
		files, err := goFiles(filepath.Join(root, dir))
		if err != nil {
			return err
		}
		for _, file := range files {
			if strings.HasSuffix(file, "_test.go") {
				continue
			}
			if err := collectReasonLiterals(file, literal); err != nil {
				return err
			}
		}
	}
	for _, r := range declared {
		delete(literal, r)
	}

	structs, err := collectStructFields(filepath.Join(root, "observe", "types.go"), []string{"Timeline", "AttemptRecord", "Transition"})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("# Reason codes\n\n")
	buf.WriteString("Generated by `scripts/gen_reference.go`. Do not edit.\n\n")
	buf.WriteString("## Classifier reasons\n\n")
	buf.WriteString("Reported in `AttemptRecord.Outcome.Reason` and `Timeline.Attributes[\"abort_reason\"]`.\n\n")
	buf.WriteString(joinBackticked(declared) + "\n\n")
	buf.WriteString("## Executor reasons\n\n")
	buf.WriteString("Set by the executor when a classifier misbehaves.\n\n")
	buf.WriteString(joinBackticked(setToSorted(literal)) + "\n\n")
	buf.WriteString("## Observability types\n\n")
	for _, name := range []string{"Timeline", "AttemptRecord", "Transition"} {
		writeStruct(&buf, "observe."+name, structs[name])
	}
	return writeFile(outPath, buf.Bytes())
}

func generateConfigReference(root, outPath string) error {
	consts, err := collectConstValues(filepath.Join(root, "config", "config.go"), []string{"EnvPrefix"})
	if err != nil {
		return err
	}
	prefix, err := strconv.Unquote(consts["EnvPrefix"])
	if err != nil {
		return fmt.Errorf("EnvPrefix: %w", err)
	}

	cfgStructs, err := collectStructFields(filepath.Join(root, "config", "config.go"), []string{"Config", "LogConfig", "MetricsConfig", "TracingConfig"})
	if err != nil {
		return err
	}
	policyStructs, err := collectStructFields(filepath.Join(root, "policy", "schema.go"), []string{"RetryConfig"})
	if err != nil {
		return err
	}
	cfgStructs["policy.RetryConfig"] = policyStructs["RetryConfig"]

	defaults, err := collectConstValues(filepath.Join(root, "policy", "schema.go"), []string{"DefaultMaxAttempts", "DefaultInitialDelay", "DefaultTimeout"})
	if err != nil {
		return err
	}
	raceDefaults, err := collectConstValues(filepath.Join(root, "race", "race.go"), []string{"DefaultTimeout"})
	if err != nil {
		return err
	}
	if defaults["DefaultTimeout"] == "race.DefaultTimeout" {
		defaults["DefaultTimeout"] = raceDefaults["DefaultTimeout"]
	}

	var sections []section
	for _, f := range cfgStructs["Config"] {
		if f.EnvNS == "" {
			continue
		}
		sections = append(sections, section{YAML: f.YAML, EnvNS: f.EnvNS, Struct: f.Type})
	}

	var buf bytes.Buffer
	buf.WriteString("# Configuration\n\n")
	buf.WriteString("Generated by `scripts/gen_reference.go`. Do not edit.\n\n")
	buf.WriteString("Sources, highest precedence first: environment, `.env`, YAML file, defaults.\n")
	buf.WriteString("YAML values may reference environment variables as `${VAR}`.\n\n")

	buf.WriteString("## Keys\n\n")
	buf.WriteString("| YAML key | Environment | Type | Notes |\n")
	buf.WriteString("|---|---|---|---|\n")
	for _, s := range sections {
		for _, f := range cfgStructs[s.Struct] {
			env := "-"
			if f.Env != "" {
				env = "`" + prefix + s.EnvNS + f.Env + "`"
			}
			note := f.Notes
			if note == "" {
				note = "-"
			}
			buf.WriteString("| `" + s.YAML + "." + f.YAML + "` | " + env + " | `" + f.Type + "` | " + escapePipes(note) + " |\n")
		}
	}
	buf.WriteString("| `policies.<namespace.name>.*` | - | `policy.RetryConfig` | Per-key overrides of the `retry` keys. |\n\n")

	buf.WriteString("## Retry defaults\n\n")
	buf.WriteString("| Constant | Value |\n")
	buf.WriteString("|---|---|\n")
	for _, k := range sortedKeys(defaults) {
		buf.WriteString("| `" + k + "` | `" + defaults[k] + "` |\n")
	}
	buf.WriteString("\n")
	return writeFile(outPath, buf.Bytes())
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func goFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".go") {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out, nil
}

func collectReasonConsts(path string) ([]string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, err
	}
	values := make(map[string]struct{})
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				if !strings.HasPrefix(name.Name, "Reason") || len(vs.Values) <= i {
					continue
				}
				if val, ok := stringLiteral(vs.Values[i]); ok {
					values[val] = struct{}{}
				}
			}
		}
	}
	return setToSorted(values), nil
}

// collectReasonLiterals finds string literals assigned to Reason fields.
func collectReasonLiterals(path string, out map[string]struct{}) error {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return err
	}

	ast.Inspect(f, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.KeyValueExpr:
			if keyIdent, ok := v.Key.(*ast.Ident); ok && keyIdent.Name == "Reason" {
				if val, ok := stringLiteral(v.Value); ok {
					out[val] = struct{}{}
				}
			}
		case *ast.AssignStmt:
			for i, lhs := range v.Lhs {
				sel, ok := lhs.(*ast.SelectorExpr)
				if !ok || sel.Sel == nil || sel.Sel.Name != "Reason" || len(v.Rhs) <= i {
					continue
				}
				if val, ok := stringLiteral(v.Rhs[i]); ok {
					out[val] = struct{}{}
				}
			}
		}
		return true
	})
	return nil
}

func stringLiteral(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	val, err := strconv.Unquote(lit.Value)
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

func collectStructFields(path string, names []string) (map[string][]structField, error) {
	want := make(map[string]struct{})
	for _, name := range names {
		want[name] = struct{}{}
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]structField)
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if _, ok := want[ts.Name.Name]; !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}
			fields := make([]structField, 0, len(st.Fields.List))
			for _, field := range st.Fields.List {
				sf := structField{Type: exprString(field.Type), Notes: joinComments(field.Doc, field.Comment)}
				if field.Tag != nil {
					if tag, err := strconv.Unquote(field.Tag.Value); err == nil {
						tags := reflect.StructTag(tag)
						sf.YAML = strings.Split(tags.Get("yaml"), ",")[0]
						sf.Env = tags.Get("env")
						sf.EnvNS = tags.Get("envPrefix")
					}
				}
				for _, name := range field.Names {
					sf.Name = name.Name
					fields = append(fields, sf)
				}
			}
			out[ts.Name.Name] = fields
		}
	}
	return out, nil
}

func collectConstValues(path string, names []string) (map[string]string, error) {
	want := make(map[string]struct{})
	for _, name := range names {
		want[name] = struct{}{}
	}
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				if _, ok := want[name.Name]; !ok || len(vs.Values) == 0 {
					continue
				}
				idx := min(i, len(vs.Values)-1)
				out[name.Name] = exprString(vs.Values[idx])
			}
		}
	}
	return out, nil
}

func exprString(expr ast.Expr) string {
	var buf bytes.Buffer
	_ = printer.Fprint(&buf, token.NewFileSet(), expr)
	return buf.String()
}

func joinComments(groups ...*ast.CommentGroup) string {
	var parts []string
	for _, g := range groups {
		if g == nil {
			continue
		}
		text := strings.TrimSpace(g.Text())
		if text != "" {
			parts = append(parts, strings.ReplaceAll(text, "\n", " "))
		}
	}
	return strings.Join(parts, " ")
}

func writeStruct(buf *bytes.Buffer, name string, fields []structField) {
	if len(fields) == 0 {
		return
	}
	buf.WriteString("### " + name + "\n\n")
	buf.WriteString("| Field | Type | Notes |\n")
	buf.WriteString("|---|---|---|\n")
	for _, field := range fields {
		note := field.Notes
		if note == "" {
			note = "-"
		}
		buf.WriteString("| `" + field.Name + "` | `" + field.Type + "` | " + escapePipes(note) + " |\n")
	}
	buf.WriteString("\n")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func joinBackticked(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, "`"+v+"`")
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

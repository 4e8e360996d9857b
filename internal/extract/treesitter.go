package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/infer"
	"github.com/v0xg/appscout/internal/model"
)

// TreeSitterExtractor produces the same fragments as TextExtractor from a
// concrete syntax tree.
type TreeSitterExtractor struct {
	logger *zap.Logger
}

// NewTreeSitterExtractor returns the tree-sitter source front end.
func NewTreeSitterExtractor(logger *zap.Logger) *TreeSitterExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeSitterExtractor{logger: logger}
}

func (e *TreeSitterExtractor) Name() string { return KindTreeSitter }

func (e *TreeSitterExtractor) Extensions() []string { return SourceExtensions }

func language(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

func (e *TreeSitterExtractor) Extract(ctx context.Context, path string, content []byte) ([]model.Fragment, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(language(path))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	var out []model.Fragment
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "lexical_declaration", "variable_declaration":
			if p := n.Parent(); p != nil && p.Type() == "export_statement" {
				out = append(out, e.exportedConstants(n, content)...)
			}
			return
		case "interface_declaration":
			if frag, ok := declaration(n, n.ChildByFieldName("body"), content); ok {
				out = append(out, frag)
			}
			return
		case "type_alias_declaration":
			if value := n.ChildByFieldName("value"); value != nil && value.Type() == "object_type" {
				if frag, ok := declaration(n, value, content); ok {
					out = append(out, frag)
				}
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].OriginFile = path
	}
	return out, nil
}

func (e *TreeSitterExtractor) exportedConstants(decl *sitter.Node, src []byte) []model.Fragment {
	var out []model.Fragment
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		nameNode, value := d.ChildByFieldName("name"), unwrapValue(d.ChildByFieldName("value"))
		if nameNode == nil || value == nil || value.Type() != "array" {
			continue
		}
		record := firstNamed(value, "object")
		if record == nil {
			continue
		}

		ident := nameNode.Content(src)
		text := record.Content(src)
		var fields model.Fields
		if pairs, err := ParseRecord(text); err == nil {
			fields = fieldsFromPairs(pairs)
		} else {
			e.logger.Debug("Record is not plain data, scanning pairs",
				zap.String("constant", ident), zap.Error(err))
			fields = scanRecordPairs(text)
		}
		if len(fields) == 0 {
			continue
		}

		name := ModelName(ident)
		if name == "" {
			name = model.Capitalize(ident)
		}
		out = append(out, model.Fragment{Name: name, Fields: fields, Kind: model.FragmentConstant})
	}
	return out
}

// unwrapValue looks through `[...] as const` and `satisfies` wrappers.
func unwrapValue(n *sitter.Node) *sitter.Node {
	for n != nil && (n.Type() == "as_expression" || n.Type() == "satisfies_expression" ||
		n.Type() == "parenthesized_expression") {
		n = n.NamedChild(0)
	}
	return n
}

func firstNamed(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func declaration(decl, body *sitter.Node, src []byte) (model.Fragment, bool) {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil || body == nil {
		return model.Fragment{}, false
	}

	var fields model.Fields
	for i := 0; i < int(body.NamedChildCount()); i++ {
		prop := body.NamedChild(i)
		if prop.Type() != "property_signature" {
			continue
		}
		key, typ := prop.ChildByFieldName("name"), prop.ChildByFieldName("type")
		if key == nil || typ == nil {
			continue
		}
		// type_annotation content keeps its leading ':'
		fields.Set(unquote(key.Content(src)), infer.FromDeclared(typ.Content(src)))
	}
	if len(fields) == 0 {
		return model.Fragment{}, false
	}
	return model.Fragment{
		Name:   nameNode.Content(src),
		Fields: fields,
		Kind:   model.FragmentDeclaration,
	}, true
}

package extract

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/infer"
	"github.com/v0xg/appscout/internal/model"
)

var (
	exportArrayRe = regexp.MustCompile(`\bexport\s+(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=\n]+?)?=\s*\[`)
	interfaceRe   = regexp.MustCompile(`\binterface\s+([A-Za-z_$][\w$]*)\s*(?:<[^>{]*>\s*)?(?:extends\s+[^{]+?)?\{`)
	typeAliasRe   = regexp.MustCompile(`\btype\s+([A-Za-z_$][\w$]*)\s*(?:<[^>=]*>\s*)?=\s*\{`)
	memberRe      = regexp.MustCompile(`^(?:readonly\s+)?([A-Za-z_$][\w$]*|"[^"]+"|'[^']+')\s*\??\s*:\s*([\s\S]*)$`)
	recordKeyRe   = regexp.MustCompile(`^([A-Za-z_$][\w$]*|"[^"]*"|'[^']*'|\d+)$`)
)

// TextExtractor recognizes exported record collections and type declarations
// in script sources with pattern matching and bracket balancing.
type TextExtractor struct {
	logger *zap.Logger
}

// NewTextExtractor returns the default source front end.
func NewTextExtractor(logger *zap.Logger) *TextExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextExtractor{logger: logger}
}

func (e *TextExtractor) Name() string { return KindText }

func (e *TextExtractor) Extensions() []string { return SourceExtensions }

func (e *TextExtractor) Extract(ctx context.Context, path string, content []byte) ([]model.Fragment, error) {
	src := string(content)
	var out []model.Fragment

	for _, m := range exportArrayRe.FindAllStringSubmatchIndex(src, -1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ident := src[m[2]:m[3]]
		open := m[1] - 1
		frag, ok := e.constantFragment(src, ident, open)
		if !ok {
			continue
		}
		frag.OriginFile = path
		out = append(out, frag)
	}

	for _, re := range []*regexp.Regexp{interfaceRe, typeAliasRe} {
		for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			open := m[1] - 1
			end := matchBracket(src, open)
			if end < 0 {
				continue
			}
			fields := declaredFields(src[open+1 : end])
			if len(fields) == 0 {
				continue
			}
			out = append(out, model.Fragment{
				Name:       src[m[2]:m[3]],
				Fields:     fields,
				OriginFile: path,
				Kind:       model.FragmentDeclaration,
			})
		}
	}
	return out, nil
}

// constantFragment materializes the first record of the array literal
// opening at src[open].
func (e *TextExtractor) constantFragment(src, ident string, open int) (model.Fragment, bool) {
	closing := matchBracket(src, open)
	if closing < 0 {
		return model.Fragment{}, false
	}
	start, end, ok := firstObject(src, open, closing)
	if !ok {
		return model.Fragment{}, false
	}
	record := src[start : end+1]

	var fields model.Fields
	if pairs, err := ParseRecord(record); err == nil {
		fields = fieldsFromPairs(pairs)
	} else {
		e.logger.Debug("Record is not plain data, scanning pairs",
			zap.String("constant", ident), zap.Error(err))
		fields = scanRecordPairs(record)
	}
	if len(fields) == 0 {
		return model.Fragment{}, false
	}

	name := ModelName(ident)
	if name == "" {
		name = model.Capitalize(ident)
	}
	return model.Fragment{Name: name, Fields: fields, Kind: model.FragmentConstant}, true
}

// scanRecordPairs reads top-level key: value pairs of an object literal one
// at a time. Values that are not plain data are typed as strings.
func scanRecordPairs(record string) model.Fields {
	var fields model.Fields
	body := record[1 : len(record)-1]
	for _, seg := range splitTopLevel(body, ",", false) {
		colon := indexTopLevel(seg, ':')
		if colon < 0 {
			continue // shorthand, spread or method
		}
		key := strings.TrimSpace(seg[:colon])
		if !recordKeyRe.MatchString(key) {
			continue
		}
		key = unquote(key)

		t := model.TypeString
		if v, err := ParseLiteral(strings.TrimSpace(seg[colon+1:])); err == nil {
			t = infer.FromValue(v)
		}
		fields.Set(key, t)
	}
	return fields
}

// declaredFields maps the members of a type body through the declared-type
// inferencer.
func declaredFields(body string) model.Fields {
	var fields model.Fields
	for _, member := range typeMembers(body) {
		m := memberRe.FindStringSubmatch(member)
		if m == nil {
			continue // index signature, method or call signature
		}
		decl := strings.TrimSpace(m[2])
		if decl == "" {
			continue
		}
		fields.Set(unquote(m[1]), infer.FromDeclared(decl))
	}
	return fields
}

// typeMembers splits a type body into members. Newlines end a member unless
// the type continues on the next line (leading '|' or '&', or a dangling
// ':', '|', '&' or '=>').
func typeMembers(body string) []string {
	var out []string
	for _, seg := range splitTopLevel(body, ";,\n", true) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if n := len(out); n > 0 && continues(out[n-1], seg) {
			out[n-1] += " " + seg
			continue
		}
		out = append(out, seg)
	}
	return out
}

func continues(prev, next string) bool {
	if strings.HasPrefix(next, "|") || strings.HasPrefix(next, "&") {
		return true
	}
	for _, s := range []string{":", "|", "&", "=>"} {
		if strings.HasSuffix(prev, s) {
			return true
		}
	}
	return false
}

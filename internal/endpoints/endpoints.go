// Package endpoints generates CRUD route handlers for each data model,
// following the routing layout the project already uses.
package endpoints

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/model"
)

// Layout is the routing convention handlers are written for.
type Layout string

const (
	AppRouter   Layout = "app"
	PagesRouter Layout = "pages"
)

var jsIdent = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

var templates = template.Must(template.New("app").Funcs(template.FuncMap{
	"prop": func(obj, key string) string {
		if jsIdent.MatchString(key) {
			return obj + "." + key
		}
		return fmt.Sprintf("%s[%q]", obj, key)
	},
}).Parse(appRouteTemplate))

func init() {
	template.Must(templates.New("pages").Parse(pagesRouteTemplate))
}

// DetectLayout picks the router from the directories present under root:
// app/ or src/app/ means the app router, else pages/ or src/pages/ means the
// pages router, else app/ is assumed. The returned dir is root-relative.
func DetectLayout(root string) (Layout, string) {
	for _, dir := range []string{"app", "src/app"} {
		if isDir(filepath.Join(root, filepath.FromSlash(dir))) {
			return AppRouter, dir
		}
	}
	for _, dir := range []string{"pages", "src/pages"} {
		if isDir(filepath.Join(root, filepath.FromSlash(dir))) {
			return PagesRouter, dir
		}
	}
	return AppRouter, "app"
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

type routeData struct {
	Name      string
	Accessor  string
	Route     string
	ID        string
	NumericID bool
	Required  []string
}

func newRouteData(m model.DataModel) routeData {
	d := routeData{
		Name:     m.Name,
		Accessor: model.LowerFirst(m.Name),
		Route:    strings.ToLower(m.Name),
		ID:       m.IdentityField(),
	}
	if f, ok := m.Fields.Find("id"); ok {
		d.NumericID = f.Type == model.TypeNumber
	}
	for _, f := range m.Fields {
		if f.Type != model.TypeString || strings.EqualFold(f.Name, d.ID) {
			continue
		}
		d.Required = append(d.Required, f.Name)
	}
	return d
}

// Render returns the handler source for m under the given layout.
func Render(layout Layout, m model.DataModel) (string, error) {
	name := string(AppRouter)
	if layout == PagesRouter {
		name = string(PagesRouter)
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, newRouteData(m)); err != nil {
		return "", fmt.Errorf("render %s handler for %s: %w", name, m.Name, err)
	}
	return buf.String(), nil
}

// RoutePath is the root-relative file a model's handler is written to.
func RoutePath(layout Layout, dir string, m model.DataModel) string {
	route := strings.ToLower(m.Name)
	if layout == PagesRouter {
		return filepath.Join(filepath.FromSlash(dir), "api", route+".ts")
	}
	return filepath.Join(filepath.FromSlash(dir), "api", route, "route.ts")
}

// Emitter writes handlers into a project tree.
type Emitter struct {
	root   string
	logger *zap.Logger
}

// NewEmitter creates an emitter rooted at the analyzed project.
func NewEmitter(root string, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{root: root, logger: logger}
}

// Emit writes one handler file per model and returns the paths written.
// A model that fails is logged and skipped; the joined failures are
// returned alongside the successful paths.
func (e *Emitter) Emit(models []model.DataModel) ([]string, error) {
	layout, dir := DetectLayout(e.root)
	e.logger.Debug("Routing layout", zap.String("layout", string(layout)), zap.String("dir", dir))

	var (
		written []string
		errs    []error
	)
	for _, m := range models {
		path, err := e.emitOne(layout, dir, m)
		if err != nil {
			e.logger.Warn("Skipping handler", zap.String("model", m.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		written = append(written, path)
	}

	if len(written) > 0 {
		if path, err := e.ensureClient(dir); err != nil {
			errs = append(errs, err)
		} else if path != "" {
			written = append(written, path)
		}
	}
	return written, errors.Join(errs...)
}

func (e *Emitter) emitOne(layout Layout, dir string, m model.DataModel) (string, error) {
	src, err := Render(layout, m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.root, RoutePath(layout, dir, m))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create route directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return "", fmt.Errorf("write handler: %w", err)
	}
	return path, nil
}

// ensureClient writes lib/prisma.ts next to the routing dir when the
// project does not already provide one. It returns "" when nothing was
// written.
func (e *Emitter) ensureClient(dir string) (string, error) {
	libDir := "lib"
	if strings.HasPrefix(dir, "src/") {
		libDir = "src/lib"
	}
	for _, ext := range []string{".ts", ".js"} {
		if _, err := os.Stat(filepath.Join(e.root, filepath.FromSlash(libDir), "prisma"+ext)); err == nil {
			return "", nil
		}
	}
	path := filepath.Join(e.root, filepath.FromSlash(libDir), "prisma.ts")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create lib directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(prismaClientTemplate), 0o644); err != nil {
		return "", fmt.Errorf("write prisma client: %w", err)
	}
	return path, nil
}

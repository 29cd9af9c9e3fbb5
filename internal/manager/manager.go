// Package manager drives instance setup: it resolves a modpack or vanilla
// version into downloads, fetches them, unpacks natives, reconciles the
// classpath and writes the invoker file. It also keeps the instance
// registry in step with the instance directories.
package manager

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/teamcutter/sml/internal/catalog"
	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/invoker"
	"github.com/teamcutter/sml/internal/loader"
	"github.com/teamcutter/sml/internal/reconciler"
	"github.com/teamcutter/sml/internal/resolver"
	"github.com/teamcutter/sml/internal/runtime"
)

// VersionIndex looks up vanilla version descriptors.
type VersionIndex interface {
	Version(ctx context.Context, id string) (*catalog.VersionEntry, error)
}

type Options struct {
	Fetcher   domain.Fetcher
	Cache     domain.Cache
	Extractor domain.Extractor
	State     domain.State
	Catalog   domain.Catalog
	Versions  VersionIndex
	Resolver  *resolver.Resolver
	Installer *loader.Installer
	// Runtimes is nil unless managed Java is enabled.
	Runtimes   *runtime.Runtimes
	Comparator reconciler.Comparator

	InstancesDir string
	Java         string
	CDNURL       string
	Logger       *log.Logger
}

type Manager struct {
	fetcher      domain.Fetcher
	cache        domain.Cache
	extractor    domain.Extractor
	state        domain.State
	catalog      domain.Catalog
	versions     VersionIndex
	resolver     *resolver.Resolver
	installer    *loader.Installer
	runtimes     *runtime.Runtimes
	compare      reconciler.Comparator
	instancesDir string
	java         string
	cdnURL       string
	logger       *log.Logger
}

func New(opts Options) *Manager {
	m := &Manager{
		fetcher:      opts.Fetcher,
		cache:        opts.Cache,
		extractor:    opts.Extractor,
		state:        opts.State,
		catalog:      opts.Catalog,
		versions:     opts.Versions,
		resolver:     opts.Resolver,
		installer:    opts.Installer,
		runtimes:     opts.Runtimes,
		compare:      opts.Comparator,
		instancesDir: opts.InstancesDir,
		java:         opts.Java,
		cdnURL:       strings.TrimSuffix(opts.CDNURL, "/"),
		logger:       opts.Logger,
	}
	if m.compare == nil {
		m.compare = reconciler.Numeric
	}
	if m.java == "" {
		m.java = "java"
	}
	if m.cdnURL == "" {
		m.cdnURL = resolver.DefaultCDNURL
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	return m
}

// Project returns the catalog entry for a modpack so callers can pick a
// file before installing.
func (m *Manager) Project(ctx context.Context, id int) (*domain.Project, error) {
	return m.catalog.Project(ctx, id)
}

func (m *Manager) List() ([]*domain.Instance, error) {
	return m.state.List()
}

// Prune drops registry entries whose directory no longer exists and returns
// them.
func (m *Manager) Prune() []*domain.Instance {
	instances, err := m.state.List()
	if err != nil {
		return nil
	}

	var removed []*domain.Instance
	for _, inst := range instances {
		if _, err := os.Stat(inst.Path); !os.IsNotExist(err) {
			continue
		}
		if err := m.state.Remove(inst.UUID); err != nil {
			m.logger.Warn("pruning instance", "instance", inst.Name, "err", err)
			continue
		}
		removed = append(removed, inst)
	}
	return removed
}

// Find resolves a user supplied reference to one instance: a full uuid or
// uuid prefix first, then an exact name, then the best fuzzy name match.
func (m *Manager) Find(query string) (*domain.Instance, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty instance reference: %w", domain.ErrNotFound)
	}

	instances, err := m.state.List()
	if err != nil {
		return nil, err
	}

	var byID []*domain.Instance
	for _, inst := range instances {
		if strings.HasPrefix(inst.UUID, query) {
			byID = append(byID, inst)
		}
	}
	switch len(byID) {
	case 1:
		return byID[0], nil
	case 0:
	default:
		return nil, fmt.Errorf("%q %w", query, domain.ErrAmbiguous)
	}

	names := make([]string, len(instances))
	for i, inst := range instances {
		if inst.Name == query {
			return inst, nil
		}
		names[i] = inst.Name
	}

	if matches := fuzzy.Find(query, names); len(matches) > 0 {
		return instances[matches[0].Index], nil
	}
	return nil, fmt.Errorf("instance %q: %w", query, domain.ErrNotFound)
}

func (m *Manager) Remove(query string) (*domain.Instance, error) {
	inst, err := m.Find(query)
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(inst.Path); err != nil {
		return nil, err
	}
	if err := m.state.Remove(inst.UUID); err != nil {
		return nil, err
	}
	return inst, nil
}

// Rename changes the display name. The directory keeps its original name.
func (m *Manager) Rename(query, name string) (*domain.Instance, error) {
	name = domain.SanitizeName(name)
	if name == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	inst, err := m.Find(query)
	if err != nil {
		return nil, err
	}

	if err := m.updateInvocation(inst, func(inv *domain.Invocation) { inv.InstanceName = name }); err != nil {
		return nil, err
	}
	if err := m.state.Rename(inst.UUID, name); err != nil {
		return nil, err
	}
	inst.Name = name
	return inst, nil
}

// Configure replaces the custom JVM arguments of an instance.
func (m *Manager) Configure(query string, args []string) (*domain.Instance, error) {
	inst, err := m.Find(query)
	if err != nil {
		return nil, err
	}
	err = m.updateInvocation(inst, func(inv *domain.Invocation) { inv.CustomArgs = args })
	return inst, err
}

// Invocation returns the stored launch parameters of an instance.
func (m *Manager) Invocation(query string) (*domain.Instance, *domain.Invocation, error) {
	inst, err := m.Find(query)
	if err != nil {
		return nil, nil, err
	}
	inv, err := invoker.Load(invokerPath(inst))
	if err != nil {
		return nil, nil, err
	}
	return inst, inv, nil
}

func (m *Manager) Launch(ctx context.Context, query string, stdout, stderr io.Writer) error {
	inst, inv, err := m.Invocation(query)
	if err != nil {
		return err
	}

	m.logger.Info("launching", "instance", inst.Name, "id", inst.ShortID())
	m.logger.Debug("command", "argv", invoker.String(inv))
	return invoker.Launch(ctx, inv, inst.Path, stdout, stderr)
}

// UpdateCredentials rebinds every instance to u and returns how many
// invoker files were rewritten.
func (m *Manager) UpdateCredentials(u *domain.User) (int, error) {
	instances, err := m.state.List()
	if err != nil {
		return 0, err
	}

	var updated int
	for _, inst := range instances {
		err := m.updateInvocation(inst, func(inv *domain.Invocation) { *inv = invoker.WithUser(*inv, u) })
		if err != nil {
			m.logger.Warn("updating credentials", "instance", inst.Name, "err", err)
			continue
		}
		updated++
	}
	return updated, nil
}

func (m *Manager) updateInvocation(inst *domain.Instance, fn func(*domain.Invocation)) error {
	path := invokerPath(inst)
	inv, err := invoker.Load(path)
	if err != nil {
		return err
	}
	fn(inv)
	return invoker.Save(path, inv)
}

func invokerPath(inst *domain.Instance) string {
	return filepath.Join(inst.Path, invoker.FileName)
}

// begin registers a pending instance and creates its directory.
func (m *Manager) begin(name string, typ domain.InstanceType) (*domain.Instance, error) {
	name = domain.SanitizeName(name)
	if name == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	path := filepath.Join(m.instancesDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("instance directory %s: %w", path, domain.ErrAlreadyExists)
	}

	inst := &domain.Instance{
		UUID:        uuid.NewString(),
		Name:        name,
		Type:        typ,
		Path:        path,
		InstalledAt: time.Now(),
	}
	if err := m.state.BeginInstall(inst); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		m.abort(inst)
		return nil, err
	}
	m.logger.Info("created instance", "name", name, "id", inst.ShortID(), "path", path)
	return inst, nil
}

func (m *Manager) abort(inst *domain.Instance) {
	if inst == nil {
		return
	}
	m.logger.Debug("rolling back instance", "id", inst.ShortID())
	if err := os.RemoveAll(inst.Path); err != nil {
		m.logger.Warn("removing instance directory", "path", inst.Path, "err", err)
	}
	if err := m.state.Remove(inst.UUID); err != nil {
		m.logger.Warn("removing instance record", "id", inst.ShortID(), "err", err)
	}
}

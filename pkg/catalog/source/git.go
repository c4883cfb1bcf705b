package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"matchbook-hq/matchbook/pkg/catalog"
)

// VersionInfo pins a catalog snapshot to the git commit it was loaded from.
// The ledger embeds the snapshot version in every audit payload, so a record
// can always be traced back to the exact catalog content it was evaluated
// against.
type VersionInfo struct {
	CommitSHA  string    `json:"commit_sha"`
	CommitTime time.Time `json:"commit_time"`
	Branch     string    `json:"branch"`
	Author     string    `json:"author"`
	Message    string    `json:"message,omitempty"`
}

// GitConfig configures a GitSource.
type GitConfig struct {
	// URL is the repository URL (https or ssh).
	URL string

	// Branch is the branch to track. Defaults to "main".
	Branch string

	// LocalPath is where the repository is cloned.
	LocalPath string

	// CatalogPath is the path of the catalog file or directory inside the
	// repository. Empty loads from the repository root.
	CatalogPath string
}

// GitSource loads catalog snapshots from a git repository. Refresh pulls the
// tracked branch and reloads when the head moved.
type GitSource struct {
	config  GitConfig
	repo    *gogit.Repository
	logger  *slog.Logger
	current atomic.Pointer[catalog.Catalog]
	version atomic.Pointer[VersionInfo]
}

// NewGitSource clones (or opens) the repository and loads the initial
// snapshot.
func NewGitSource(ctx context.Context, cfg GitConfig, logger *slog.Logger) (*GitSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}

	s := &GitSource{
		config: cfg,
		logger: logger.With("component", "catalog.git"),
	}

	repo, err := gogit.PlainOpen(cfg.LocalPath)
	if err == gogit.ErrRepositoryNotExists {
		repo, err = gogit.PlainCloneContext(ctx, cfg.LocalPath, false, &gogit.CloneOptions{
			URL:           cfg.URL,
			ReferenceName: plumbing.NewBranchReferenceName(cfg.Branch),
			SingleBranch:  true,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("opening catalog repository: %w", err)
	}
	s.repo = repo

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current immutable catalog.
func (s *GitSource) Snapshot() *catalog.Catalog {
	return s.current.Load()
}

// Version returns the commit the current snapshot was loaded from.
func (s *GitSource) Version() VersionInfo {
	return *s.version.Load()
}

// Refresh pulls the tracked branch and reloads the catalog if the head
// moved. A failed pull or reload keeps the current snapshot.
func (s *GitSource) Refresh(ctx context.Context) error {
	worktree, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("catalog repository worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
		SingleBranch:  true,
	})
	if err == gogit.NoErrAlreadyUpToDate {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pulling catalog repository: %w", err)
	}

	return s.load()
}

// load reads the catalog from the checkout and swaps the snapshot, stamping
// it with the head commit.
func (s *GitSource) load() error {
	head, err := s.repo.Head()
	if err != nil {
		return fmt.Errorf("catalog repository head: %w", err)
	}
	commit, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("reading head commit: %w", err)
	}

	info := &VersionInfo{
		CommitSHA:  head.Hash().String(),
		CommitTime: commit.Author.When,
		Branch:     s.config.Branch,
		Author:     fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email),
		Message:    commit.Message,
	}

	path := filepath.Join(s.config.LocalPath, s.config.CatalogPath)
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}
	// The commit is the authoritative version label in git mode.
	cat.Version = "git:" + info.CommitSHA[:12]

	s.current.Store(cat)
	s.version.Store(info)
	s.logger.Info("catalog loaded from git",
		"commit", info.CommitSHA[:12], "branch", info.Branch)
	return nil
}

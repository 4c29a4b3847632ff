package extract

import (
	"context"
	"errors"
	"sync"

	"github.com/pgschema/supaextract/internal/config"
	"github.com/pgschema/supaextract/internal/ir"
	"github.com/pgschema/supaextract/internal/remote"
	"github.com/pgschema/supaextract/internal/script"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrNoResult is returned when exporting before a successful extraction.
	ErrNoResult = errors.New("no extraction result available")
	// ErrExtractionInProgress is returned when Extract is called while
	// another extraction on the same session is still running.
	ErrExtractionInProgress = errors.New("an extraction is already in progress")
)

// Session holds the state of one user: the latest successful result and the
// exclusion lists used to build the setup script. At most one extraction
// runs at a time.
type Session struct {
	extractor *Extractor
	inFlight  *semaphore.Weighted

	mu         sync.RWMutex
	result     *ir.Result
	exclusions config.ExclusionConfig
}

// NewSession creates a session with the default exclusion lists.
func NewSession(extractor *Extractor) *Session {
	if extractor == nil {
		extractor = New(nil, Options{})
	}
	return &Session{
		extractor:  extractor,
		inFlight:   semaphore.NewWeighted(1),
		exclusions: config.DefaultExclusions(),
	}
}

// Extract runs an extraction and replaces the held result. Any failure
// clears the held result, except ErrExtractionInProgress which leaves the
// session untouched.
func (s *Session) Extract(ctx context.Context, creds remote.Credentials) (*ir.Result, error) {
	if !s.inFlight.TryAcquire(1) {
		return nil, ErrExtractionInProgress
	}
	defer s.inFlight.Release(1)

	result, err := s.extractor.Extract(ctx, creds)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.result = nil
		return nil, err
	}
	s.result = result
	return result, nil
}

// Result returns the held result, or nil when there is none.
func (s *Session) Result() *ir.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Export renders the held result as an export script.
func (s *Session) Export(includeDropStatements bool) (string, error) {
	result := s.Result()
	if result == nil {
		return "", ErrNoResult
	}
	return script.BuildExportScript(result, includeDropStatements), nil
}

// Exclusions returns a copy of the current exclusion lists.
func (s *Session) Exclusions() config.ExclusionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return config.ExclusionConfig{
		FunctionSchemas: append(make([]string, 0, len(s.exclusions.FunctionSchemas)), s.exclusions.FunctionSchemas...),
		TriggerSchemas:  append(make([]string, 0, len(s.exclusions.TriggerSchemas)), s.exclusions.TriggerSchemas...),
	}
}

// SetExclusions replaces the exclusion lists. Entries are normalised.
func (s *Session) SetExclusions(cfg config.ExclusionConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exclusions = cfg.Normalize()
}

// SetFunctionSchemas replaces the function exclusion list from
// newline-delimited text.
func (s *Session) SetFunctionSchemas(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exclusions.FunctionSchemas = config.ParseSchemaList(text)
	s.exclusions = s.exclusions.Normalize()
}

// SetTriggerSchemas replaces the trigger exclusion list from
// newline-delimited text.
func (s *Session) SetTriggerSchemas(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exclusions.TriggerSchemas = config.ParseSchemaList(text)
	s.exclusions = s.exclusions.Normalize()
}

// ResetFunctionSchemas restores the default function exclusion list.
func (s *Session) ResetFunctionSchemas() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exclusions.ResetFunctionSchemas()
}

// ResetTriggerSchemas restores the default trigger exclusion list.
func (s *Session) ResetTriggerSchemas() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exclusions.ResetTriggerSchemas()
}

// SetupScript renders the setup script for the current exclusion lists.
func (s *Session) SetupScript() string {
	return script.BuildSetupScript(s.Exclusions())
}

// RunSetup installs the setup script on the backend through exec_sql.
func (s *Session) RunSetup(ctx context.Context, creds remote.Credentials) error {
	return s.extractor.ApplySetup(ctx, creds, s.SetupScript())
}

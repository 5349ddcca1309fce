// Package artifacts is the filesystem store for JSON artifacts produced by
// the external compute jobs. The store never writes: jobs write into the same
// well-known locations the store reads from.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/interfaces"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

// Roots holds the directory of each artifact root.
type Roots struct {
	Analysis    string
	DCF         string
	Data        string
	Summaries   string
	Transcripts string
}

// RootsFromConfig resolves the configured directories against the base dir.
func RootsFromConfig(config common.StorageConfig) Roots {
	return Roots{
		Analysis:    config.Resolve(config.AnalysisDir),
		DCF:         config.Resolve(config.DCFDir),
		Data:        config.Resolve(config.DataDir),
		Summaries:   config.Resolve(config.SummariesDir),
		Transcripts: config.Resolve(config.TranscriptsDir),
	}
}

// Store is the filesystem ArtifactStore.
type Store struct {
	dirs   map[models.ArtifactRoot]string
	logger arbor.ILogger
}

var _ interfaces.ArtifactStore = (*Store)(nil)

// NewStore creates a store over the given roots.
func NewStore(roots Roots, logger arbor.ILogger) *Store {
	return &Store{
		dirs: map[models.ArtifactRoot]string{
			models.RootAnalysis:    roots.Analysis,
			models.RootDCF:         roots.DCF,
			models.RootData:        roots.Data,
			models.RootSummaries:   roots.Summaries,
			models.RootTranscripts: roots.Transcripts,
		},
		logger: logger,
	}
}

// EnsureRoots creates every root directory that does not exist yet.
func (s *Store) EnsureRoots() error {
	for root, dir := range s.dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s root %s: %w", root, dir, err)
		}
	}
	return nil
}

// Path returns the file path of key. Names must be plain file names.
func (s *Store) Path(key models.ArtifactKey) (string, error) {
	dir, ok := s.dirs[key.Root]
	if !ok {
		return "", fmt.Errorf("unknown artifact root %q", key.Root)
	}
	if key.Name == "" || filepath.Base(key.Name) != key.Name || key.Name == "." || key.Name == ".." {
		return "", fmt.Errorf("invalid artifact name %q", key.Name)
	}
	return filepath.Join(dir, key.Name), nil
}

// ReadObject returns the JSON object stored at key, or an empty map when it is
// absent, unreadable or not an object.
func (s *Store) ReadObject(key models.ArtifactKey) map[string]interface{} {
	value, ok := s.read(key)
	if !ok {
		return map[string]interface{}{}
	}
	obj, isObj := value.(map[string]interface{})
	if !isObj {
		s.logger.Warn().
			Str("artifact", key.String()).
			Msg("Artifact is not a JSON object, treating as absent")
		return map[string]interface{}{}
	}
	return obj
}

// ReadList returns the JSON array stored at key, or an empty slice when it is
// absent, unreadable or not an array.
func (s *Store) ReadList(key models.ArtifactKey) []interface{} {
	value, ok := s.read(key)
	if !ok {
		return []interface{}{}
	}
	list, isList := value.([]interface{})
	if !isList {
		s.logger.Warn().
			Str("artifact", key.String()).
			Msg("Artifact is not a JSON array, treating as absent")
		return []interface{}{}
	}
	return list
}

// read decodes the artifact at key. The bool is false when there is nothing usable.
func (s *Store) read(key models.ArtifactKey) (interface{}, bool) {
	path, err := s.Path(key)
	if err != nil {
		s.logger.Warn().Err(err).Str("artifact", key.String()).Msg("Invalid artifact key")
		return nil, false
	}
	return s.readPath(path)
}

func (s *Store) readPath(path string) (interface{}, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug().Str("path", path).Msg("Artifact not found")
		} else {
			s.logger.Warn().Err(err).Str("path", path).Msg("Error reading artifact")
		}
		return nil, false
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Error decoding artifact")
		return nil, false
	}
	if value == nil {
		return nil, false
	}
	return value, true
}

// Scan returns every JSON object in root whose file name matches pattern,
// in file-name order. Files that are not JSON objects are skipped.
func (s *Store) Scan(root models.ArtifactRoot, pattern string) []map[string]interface{} {
	results := []map[string]interface{}{}

	dir, ok := s.dirs[root]
	if !ok {
		s.logger.Warn().Str("root", string(root)).Msg("Scan of unknown artifact root")
		return results
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		s.logger.Warn().Err(err).Str("pattern", pattern).Msg("Invalid artifact scan pattern")
		return results
	}
	sort.Strings(matches)

	for _, path := range matches {
		value, ok := s.readPath(path)
		if !ok {
			continue
		}
		if obj, isObj := value.(map[string]interface{}); isObj {
			results = append(results, obj)
		}
	}
	return results
}

// Delete removes each key independently. Absent keys are reported as missing,
// not failed; a failure on one key does not stop the others.
func (s *Store) Delete(keys ...models.ArtifactKey) models.DeleteReport {
	report := models.NewDeleteReport()

	for _, key := range keys {
		path, err := s.Path(key)
		if err != nil {
			report.Failed[key] = err
			s.logger.Error().Err(err).Str("artifact", key.String()).Msg("Error deleting artifact")
			continue
		}

		info, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			report.Missing = append(report.Missing, key)
			continue
		}
		if err == nil && info.IsDir() {
			err = fmt.Errorf("%s is a directory", path)
		}
		if err == nil {
			err = os.Remove(path)
		}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				report.Missing = append(report.Missing, key)
				continue
			}
			report.Failed[key] = err
			s.logger.Error().Err(err).Str("path", path).Msg("Error deleting artifact")
			continue
		}

		report.Deleted = append(report.Deleted, key)
		s.logger.Info().Str("path", path).Msg("Deleted cache file")
	}

	return report
}

// LoadAnalysis returns the analysis metrics of ticker, or an empty map.
func (s *Store) LoadAnalysis(ticker common.Ticker) map[string]interface{} {
	return s.ReadObject(AnalysisKey(ticker))
}

// LoadDCF returns the DCF outputs of ticker, or an empty map.
func (s *Store) LoadDCF(ticker common.Ticker) map[string]interface{} {
	return s.ReadObject(DCFKey(ticker))
}

// LoadSummary returns the generated summary for one quarter, or an empty map.
func (s *Store) LoadSummary(ticker common.Ticker, year, quarter int) map[string]interface{} {
	return s.ReadObject(SummaryKey(ticker, year, quarter))
}

// LoadTranscripts returns the transcripts of ticker newest first.
// Entries without a numeric year and quarter are skipped.
func (s *Store) LoadTranscripts(ticker common.Ticker) []models.Transcript {
	transcripts := []models.Transcript{}
	for _, data := range s.Scan(models.RootTranscripts, TranscriptPattern(ticker)) {
		transcript, ok := models.NewTranscript(data)
		if !ok {
			continue
		}
		transcripts = append(transcripts, transcript)
	}
	models.SortTranscripts(transcripts)
	return transcripts
}

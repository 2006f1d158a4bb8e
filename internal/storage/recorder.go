package storage

import (
	"context"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	"docsnip/internal/checker"
	"docsnip/internal/errors"
	"docsnip/internal/snippet"
)

// Recorder ties one Run to the pipeline and the checker. It implements
// snippet.Observer.
type Recorder struct {
	repo *RunRepository
	run  *Run
}

// NewRecorder starts a run named after command.
func NewRecorder(repo *RunRepository, command string) (*Recorder, error) {
	run, err := repo.Start(command)
	if err != nil {
		return nil, err
	}
	return &Recorder{repo: repo, run: run}, nil
}

// Run returns the run being recorded.
func (r *Recorder) Run() *Run {
	return r.run
}

// ArtifactWritten records a written snippet with its content digest.
func (r *Recorder) ArtifactWritten(ctx context.Context, art snippet.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.repo.AddArtifact(&ArtifactRecord{
		RunID:    r.run.ID,
		Language: string(art.Language),
		Path:     art.Path,
		DocPath:  art.DocPath,
		Ordinal:  art.Ordinal,
		Digest:   Digest(art.Content),
		Size:     len(art.Content),
	})
	if err != nil {
		return errors.New(errors.InternalError, "failed to update run manifest", err)
	}
	return nil
}

// CheckFinished records a toolchain result.
func (r *Recorder) CheckFinished(res *checker.Result) error {
	if res == nil {
		return nil
	}

	var output []string
	for _, s := range []string{res.Stdout, res.Stderr} {
		if s != "" {
			output = append(output, s)
		}
	}

	err := r.repo.AddCheck(&CheckRecord{
		RunID:    r.run.ID,
		Language: string(res.Language),
		Command:  res.Command,
		Passed:   res.Passed,
		ExitCode: res.ExitCode,
		Duration: res.Duration,
		Output:   strings.Join(output, "\n"),
	})
	if err != nil {
		return errors.New(errors.InternalError, "failed to update run manifest", err)
	}
	return nil
}

// Finish closes the run with its stats and outcome.
func (r *Recorder) Finish(stats *snippet.RunStats, runErr error) error {
	return r.repo.Finish(r.run, stats, runErr)
}

// Digest returns the hex BLAKE2b-256 digest of content.
func Digest(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Package progress tracks long-running generation jobs in memory. Clients
// poll by key; entries live for the process lifetime.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain/entities"
)

// Status is a job's lifecycle state. Jobs move forward through starting,
// processing, merging, completed, or jump to error; they never regress from
// completed.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusMerging    Status = "merging"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

var statusRank = map[Status]int{
	StatusStarting:   0,
	StatusProcessing: 1,
	StatusMerging:    2,
	StatusCompleted:  3,
}

// LanguageOutput is one per-language result of a generation job.
type LanguageOutput struct {
	AudioPath    string `json:"audio_path"`
	FileSize     int64  `json:"file_size"`
	SegmentsUsed int    `json:"segments_used"`
}

// Job is a snapshot of one generation job's progress.
type Job struct {
	Key                string                               `json:"generation_key"`
	Status             Status                               `json:"status"`
	CurrentLanguage    entities.Language                    `json:"current_language,omitempty"`
	TotalLanguages     int                                  `json:"total_languages"`
	CompletedLanguages int                                  `json:"completed_languages"`
	Outputs            map[entities.Language]LanguageOutput `json:"final_audio_files"`
	MergedPath         string                               `json:"merged_audio_path,omitempty"`
	Error              string                               `json:"error,omitempty"`
	UpdatedAt          time.Time                            `json:"updated_at"`
}

// Tracker is the in-memory job registry. It is safe for concurrent use by
// workers and polling handlers.
type Tracker struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	logger *zap.Logger
}

func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{
		jobs:   make(map[string]*Job),
		logger: logger,
	}
}

// Start registers a job under key in the starting state, replacing any
// previous run with the same key.
func (t *Tracker) Start(key string, totalLanguages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[key] = &Job{
		Key:            key,
		Status:         StatusStarting,
		TotalLanguages: totalLanguages,
		Outputs:        make(map[entities.Language]LanguageOutput),
		UpdatedAt:      time.Now(),
	}
}

// Get returns a copy of the job's current state.
func (t *Tracker) Get(key string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[key]
	if !ok {
		return Job{}, false
	}
	return snapshot(job), true
}

// SetStatus advances the job's status. Backward transitions are ignored: a
// completed job stays completed, and a merging job cannot return to
// processing. Error is reachable from every state except completed.
func (t *Tracker) SetStatus(key string, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[key]
	if !ok {
		return
	}
	if !allowed(job.Status, status) {
		t.logger.Warn("ignoring backward job transition",
			zap.String("key", key),
			zap.String("from", string(job.Status)),
			zap.String("to", string(status)))
		return
	}
	job.Status = status
	job.UpdatedAt = time.Now()
}

// SetLanguage records the language currently being processed and how many
// are already done.
func (t *Tracker) SetLanguage(key string, lang entities.Language, completed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[key]; ok {
		job.CurrentLanguage = lang
		job.CompletedLanguages = completed
		job.UpdatedAt = time.Now()
	}
}

// SetOutput records one per-language output.
func (t *Tracker) SetOutput(key string, lang entities.Language, out LanguageOutput) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[key]; ok {
		job.Outputs[lang] = out
		job.UpdatedAt = time.Now()
	}
}

// SetMerged records the final merged output path.
func (t *Tracker) SetMerged(key, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[key]; ok {
		job.MergedPath = path
		job.UpdatedAt = time.Now()
	}
}

// Fail moves the job to error with a message. A completed job is left
// untouched.
func (t *Tracker) Fail(key, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[key]
	if !ok {
		return
	}
	if job.Status == StatusCompleted {
		t.logger.Warn("ignoring error on completed job", zap.String("key", key))
		return
	}
	job.Status = StatusError
	job.Error = message
	job.UpdatedAt = time.Now()
}

func allowed(from, to Status) bool {
	if from == StatusCompleted {
		return false
	}
	if to == StatusError {
		return true
	}
	if from == StatusError {
		return false
	}
	return statusRank[to] >= statusRank[from]
}

func snapshot(job *Job) Job {
	copy := *job
	copy.Outputs = make(map[entities.Language]LanguageOutput, len(job.Outputs))
	for lang, out := range job.Outputs {
		copy.Outputs[lang] = out
	}
	return copy
}

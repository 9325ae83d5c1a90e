// Package config holds the deployment layout: storage directories, public
// mount URLs, voice identities, and server settings. Values come from the
// environment with defaults matching the standard /var/www layout.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wras-dhh/server/domain/entities"
)

type Config struct {
	Port string

	// AudioRoot is the audio storage root; AudioMount is its public URL
	// prefix. Generated audio lands in subdirectories of the root so the
	// frontend can derive retrieval URLs without a lookup call.
	AudioRoot  string
	AudioMount string

	// ISLDatasetDir holds one directory per sign-language word.
	ISLDatasetDir string
	ISLVideoDir   string
	ISLVideoMount string

	// PublishDirs are tried in order: primary system path, local fallback,
	// temp fallback.
	PublishDirs  []string
	PublishMount string

	FFmpegBin  string
	Workers    int
	JobTimeout time.Duration
	// Retention bounds how long generated flow files live before cleanup.
	Retention time.Duration

	// Voices maps each language to its fixed synthesizer voice identity.
	Voices map[entities.Language]string
}

// Subdirectory and filename conventions under AudioRoot.
const (
	FinalAnnouncementsSubdir = "final_announcements"
	MergedSubdir             = "merged"
	MergedTextISLSubdir      = "merged_text_isl"
	MergedSpeechISLSubdir    = "merged_speech_isl"
	SynthesizedSubdir        = "synthesized"
)

func Load() *Config {
	cfg := &Config{
		Port:          getenv("PORT", "5001"),
		AudioRoot:     getenv("AUDIO_FILES_DIR", "/var/www/audio_files"),
		AudioMount:    getenv("AUDIO_FILES_URL", "/audio_files"),
		ISLDatasetDir: getenv("ISL_DATASET_DIR", "/var/www/isl_dataset"),
		ISLVideoDir:   getenv("FINAL_TEXT_ISL_VID_DIR", "/var/www/final_text_isl_vid"),
		ISLVideoMount: getenv("FINAL_TEXT_ISL_VID_URL", "/final_text_isl_vid"),
		PublishDirs: []string{
			getenv("PUBLISH_DIR", "/var/www/publish_isl"),
			"./publish_isl",
			filepath.Join(os.TempDir(), "publish_isl"),
		},
		PublishMount: getenv("PUBLISH_URL", "/publish_isl"),
		FFmpegBin:    getenv("FFMPEG_BIN", "ffmpeg"),
		Workers:      getenvInt("MEDIA_WORKERS", 4),
		JobTimeout:   getenvDuration("JOB_TIMEOUT", 5*time.Minute),
		Retention:    getenvDuration("GENERATED_FILE_RETENTION", 24*time.Hour),
		Voices: map[entities.Language]string{
			entities.LanguageEnglish:  getenv("TTS_VOICE_ENGLISH", "en-IN-Chirp3-HD-Achernar"),
			entities.LanguageHindi:    getenv("TTS_VOICE_HINDI", "hi-IN-Chirp3-HD-Achernar"),
			entities.LanguageMarathi:  getenv("TTS_VOICE_MARATHI", "mr-IN-Chirp3-HD-Achernar"),
			entities.LanguageGujarati: getenv("TTS_VOICE_GUJARATI", "gu-IN-Chirp3-HD-Achernar"),
		},
	}
	return cfg
}

// FinalAnnouncementsDir is where per-language announcement outputs land.
func (c *Config) FinalAnnouncementsDir() string {
	return filepath.Join(c.AudioRoot, FinalAnnouncementsSubdir)
}

// MergedDir is where four-language merged announcement tracks land.
func (c *Config) MergedDir() string {
	return filepath.Join(c.AudioRoot, MergedSubdir)
}

// SynthesizedDir is where synthesis-fallback audio is persisted.
func (c *Config) SynthesizedDir() string {
	return filepath.Join(c.AudioRoot, SynthesizedSubdir)
}

// MergedISLDir is where merged audio for the text/speech sign-language
// flows lands.
func (c *Config) MergedISLDir() string {
	return filepath.Join(c.AudioRoot, MergedTextISLSubdir)
}

// AudioURL converts a path under AudioRoot into its public URL.
func (c *Config) AudioURL(diskPath string) string {
	rel, err := filepath.Rel(c.AudioRoot, diskPath)
	if err != nil {
		return diskPath
	}
	return c.AudioMount + "/" + filepath.ToSlash(rel)
}

// AudioDiskPath converts a public audio URL back into its disk path.
func (c *Config) AudioDiskPath(url string) string {
	if rel, ok := trimPrefix(url, c.AudioMount+"/"); ok {
		return filepath.Join(c.AudioRoot, filepath.FromSlash(rel))
	}
	return url
}

func trimPrefix(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return s, false
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

package record

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/msgvault/msgvault/codec"
	"github.com/msgvault/msgvault/internal/fs"
)

// Loader reads raw SMS and email source files into records.
type Loader struct {
	fs       fs.FileSystem
	codec    codec.Codec
	logger   *slog.Logger
	classify bool
}

// LoaderOptions contains configuration options for the Loader.
type LoaderOptions struct {
	// FS is the file system used to read source files.
	FS fs.FileSystem

	// Codec decodes the raw JSON documents.
	Codec codec.Codec

	// Logger receives ingestion progress and skip warnings.
	Logger *slog.Logger

	// Classify enables heuristic type tagging during ingestion.
	Classify bool
}

// NewLoader creates a Loader.
func NewLoader(optFns ...func(o *LoaderOptions)) *Loader {
	opts := LoaderOptions{
		FS:       fs.Default,
		Codec:    codec.Default,
		Logger:   slog.Default(),
		Classify: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Loader{
		fs:       opts.FS,
		codec:    opts.Codec,
		logger:   opts.Logger,
		classify: opts.Classify,
	}
}

type smsDocument struct {
	Messages []struct {
		Sender    string         `json:"sender"`
		Text      string         `json:"text"`
		Timestamp string         `json:"timestamp"`
		Type      string         `json:"type"`
		Details   map[string]any `json:"details"`
	} `json:"messages"`
}

type emailDocument struct {
	Emails []struct {
		From    string         `json:"from"`
		Subject string         `json:"subject"`
		Body    string         `json:"body"`
		Date    string         `json:"date"`
		Type    string         `json:"type"`
		Details map[string]any `json:"details"`
	} `json:"emails"`
}

// LoadSMS reads an SMS source file (a JSON document with a "messages" array).
// A missing file is not an error: ingestion is skipped with a warning.
func (l *Loader) LoadSMS(path string) ([]Record, error) {
	data, ok, err := l.readFile(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.logger.Warn("sms source file not found, skipping ingestion", "path", path)
		return nil, nil
	}

	var doc smsDocument
	if err := l.codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode sms document %s: %w", path, err)
	}

	records := make([]Record, 0, len(doc.Messages))
	for _, msg := range doc.Messages {
		rec := Record{
			Source:    SourceSMS,
			Sender:    msg.Sender,
			Body:      msg.Text,
			Timestamp: msg.Timestamp,
			Type:      msg.Type,
			Details:   msg.Details,
		}
		if l.classify && rec.Type == "" {
			ClassifySMS(&rec)
		}
		records = append(records, rec)
	}

	l.logger.Info("ingested sms messages", "path", path, "count", len(records))
	return records, nil
}

// LoadEmails reads an email source file (a JSON document with an "emails" array).
// A missing file is not an error: ingestion is skipped with a warning.
func (l *Loader) LoadEmails(path string) ([]Record, error) {
	data, ok, err := l.readFile(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.logger.Warn("email source file not found, skipping ingestion", "path", path)
		return nil, nil
	}

	var doc emailDocument
	if err := l.codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode email document %s: %w", path, err)
	}

	records := make([]Record, 0, len(doc.Emails))
	for _, mail := range doc.Emails {
		rec := Record{
			Source:    SourceEmail,
			Sender:    mail.From,
			Subject:   mail.Subject,
			Body:      mail.Body,
			Timestamp: mail.Date,
			Type:      mail.Type,
			Details:   mail.Details,
		}
		if l.classify && rec.Type == "" {
			ClassifyEmail(&rec)
		}
		records = append(records, rec)
	}

	l.logger.Info("ingested email messages", "path", path, "count", len(records))
	return records, nil
}

// Load reads both source files and returns SMS records followed by emails,
// preserving file order within each source.
func (l *Loader) Load(smsPath, emailPath string) ([]Record, error) {
	sms, err := l.LoadSMS(smsPath)
	if err != nil {
		return nil, err
	}

	emails, err := l.LoadEmails(emailPath)
	if err != nil {
		return nil, err
	}

	return append(sms, emails...), nil
}

// readFile returns the file contents, or ok=false when the file is absent.
func (l *Loader) readFile(path string) ([]byte, bool, error) {
	f, err := l.fs.OpenFile(path, os.O_RDONLY, 0)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

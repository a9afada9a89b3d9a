package core

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/trezcool/enrollment/fs"
)

const emailTemplatesDir = "templates/email"

var (
	templates tmplCache
	tmplMu    sync.RWMutex
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getTemplate() *tmplCacheEntry {
	tmplMu.RLock()
	defer tmplMu.RUnlock()
	return templates[m.TemplateName]
}

// Render fills TextContent and HTMLContent from BodyStr or from the message template.
func (m *EmailMessage) Render(appName string) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	entry := m.getTemplate()
	if entry == nil {
		return errors.Errorf("email template %q not found", m.TemplateName)
	}
	data := ContextData{AppName: appName, Data: m.TemplateData}

	if entry.text != nil && m.BodyStr == "" {
		var buff bytes.Buffer
		if err := entry.text.Execute(&buff, data); err != nil {
			return errors.Wrap(err, "rendering text template")
		}
		m.TextContent = buff.String()
	}
	if entry.html != nil {
		var buff bytes.Buffer
		if err := entry.html.Execute(&buff, data); err != nil {
			return errors.Wrap(err, "rendering html template")
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// ParseEmailTemplates parses the embedded email templates.
// Each "<name>.txt" / "<name>.gohtml" is parsed along with the matching "_base" layout.
func ParseEmailTemplates(logger Logger) {
	if err := parseTemplates(appfs.FS); err != nil {
		logger.Error(fmt.Sprintf("parsing email templates: %v", err), err)
	}
}

func parseTemplates(fsys fs.FS) error {
	cache := make(tmplCache)

	entries, err := fs.ReadDir(fsys, emailTemplatesDir)
	if err != nil {
		return errors.Wrap(err, "reading templates dir")
	}
	for _, e := range entries {
		fname := e.Name()
		ext := path.Ext(fname)
		if e.IsDir() || strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := cache[name]
		if !ok {
			entry = new(tmplCacheEntry)
			cache[name] = entry
		}

		base := path.Join(emailTemplatesDir, "_base"+ext)
		fp := path.Join(emailTemplatesDir, fname)
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, base, fp)
			if err != nil {
				return errors.Wrapf(err, "parsing %s", fname)
			}
			entry.text = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, base, fp)
			if err != nil {
				return errors.Wrapf(err, "parsing %s", fname)
			}
			entry.html = tmpl.Option("missingkey=error")
		}
	}

	tmplMu.Lock()
	templates = cache
	tmplMu.Unlock()
	return nil
}

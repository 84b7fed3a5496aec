// Package renderer is the default liquid-backed implementation of
// domain.Renderer: it resolves a form's handler.template reference through
// the form-store client and executes the returned markup against the
// message's decoded fields. Built on osteele/liquid
// (liquid.NewEngine / engine.ParseAndRenderString), adapted from MJML block
// rendering to a flat subject/HTML/text template triple.
package renderer

import (
	"context"
	"fmt"

	"github.com/email4-dev/mailer/internal/domain"
	"github.com/email4-dev/mailer/pkg/formstore"
	"github.com/osteele/liquid"
)

// TemplateFetcher resolves a template reference to its liquid markup body.
// Satisfied by *formstore.Client.
type TemplateFetcher interface {
	GetTemplate(ctx context.Context, templateID string) (*formstore.Template, error)
}

// Renderer resolves and executes a form's template against submitted
// fields.
type Renderer struct {
	Templates TemplateFetcher
	engine    *liquid.Engine
}

// New builds a Renderer backed by a fresh liquid engine.
func New(templates TemplateFetcher) *Renderer {
	return &Renderer{Templates: templates, engine: liquid.NewEngine()}
}

// Render implements domain.Renderer. A missing template reference, a
// template-store lookup failure, or a liquid parse/render error are all
// treated as render-permanent — none are retried.
func (r *Renderer) Render(ctx context.Context, form *domain.FormRecord, fields []domain.Field, origin string, attachmentURL string) (*domain.RenderedMail, error) {
	if form.Handler.Template == "" {
		return nil, fmt.Errorf("form %s has no template reference", form.ID)
	}

	tmpl, err := r.Templates.GetTemplate(ctx, form.Handler.Template)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", form.Handler.Template, err)
	}

	data := fieldsToBindings(fields)
	data["origin"] = origin
	data["attachment_url"] = attachmentURL

	subject, err := r.engine.ParseAndRenderString(tmpl.Subject, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	htmlBody, err := r.engine.ParseAndRenderString(tmpl.HTMLBody, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}
	textBody := ""
	if tmpl.TextBody != "" {
		textBody, err = r.engine.ParseAndRenderString(tmpl.TextBody, data)
		if err != nil {
			return nil, fmt.Errorf("failed to render text body: %w", err)
		}
	}

	if subject == "" {
		return nil, fmt.Errorf("template %s produced an empty subject", form.Handler.Template)
	}
	if htmlBody == "" && textBody == "" {
		return nil, fmt.Errorf("template %s produced no content", form.Handler.Template)
	}

	return &domain.RenderedMail{
		FromName:  form.Handler.FromName,
		FromEmail: form.Handler.FromEmail,
		To:        form.Handler.To,
		ReplyTo:   form.Handler.ReplyTo,
		Subject:   subject,
		HTMLBody:  htmlBody,
		TextBody:  textBody,
	}, nil
}

// fieldsToBindings turns the ordered field list into the map liquid expects,
// grouping any name ending in "[]" into a slice.
func fieldsToBindings(fields []domain.Field) map[string]interface{} {
	data := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		name := f.Name
		if len(name) > 2 && name[len(name)-2:] == "[]" {
			key := name[:len(name)-2]
			existing, _ := data[key].([]string)
			data[key] = append(existing, f.Value)
			continue
		}
		data[name] = f.Value
	}
	return data
}

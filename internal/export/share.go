package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rcliao/misoul/internal/codec"
	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/model"
)

const (
	ShareTitle     = "My Memory from MindVerse"
	shareImageName = "memory-image.jpg"
)

// ShareData is the payload handed to a share platform.
type ShareData struct {
	Title string
	Text  string
	Files []File
}

// BuildShareData builds the share payload for one memory. Only images carry
// their bytes along.
func BuildShareData(m model.Memory) ShareData {
	d := ShareData{Title: ShareTitle}
	switch c := m.Content.(type) {
	case model.Text:
		d.Text = c.Body()
	case model.Media:
		d.Text = fmt.Sprintf("Check out my %s memory: %s", strings.ToLower(string(c.Kind())), c.Description())
		if c.Kind() == model.KindImage {
			d.Files = []File{{
				Name:      shareImageName,
				MediaType: codec.MimeFor(model.KindImage),
				Data:      c.Data(),
			}}
		}
	}
	return d
}

// Platform is a native share capability.
type Platform interface {
	CanShare(d ShareData) bool
	Share(ctx context.Context, d ShareData) error
}

// Share hands the memory to the platform, dropping attachments when the
// platform cannot take them. Failures come back as a share error and leave
// everything else untouched.
func Share(ctx context.Context, p Platform, m model.Memory) error {
	d := BuildShareData(m)
	if len(d.Files) > 0 && !p.CanShare(d) {
		d = ShareData{Title: d.Title, Text: d.Text}
	}
	if err := p.Share(ctx, d); err != nil {
		return errs.NewShare(err)
	}
	return nil
}

// DirPlatform shares by writing the payload into a fresh directory under Root:
// share.txt holds the title and text, attachments sit next to it.
type DirPlatform struct {
	Root string
	// TextOnly makes the platform refuse attachments.
	TextOnly bool
	// Name picks the directory name for a payload. Defaults to "share".
	Name string

	written string
}

func (p *DirPlatform) CanShare(d ShareData) bool {
	return !p.TextOnly || len(d.Files) == 0
}

func (p *DirPlatform) Share(ctx context.Context, d ShareData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Root == "" {
		return fmt.Errorf("no share directory configured")
	}
	name := p.Name
	if name == "" {
		name = "share"
	}
	// Names come from record ids, which a remote store controls.
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("invalid share name %q", name)
	}
	dir := filepath.Join(p.Root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create share dir: %w", err)
	}

	body := d.Title + "\n\n" + d.Text + "\n"
	if err := os.WriteFile(filepath.Join(dir, "share.txt"), []byte(body), 0o644); err != nil {
		return fmt.Errorf("write share text: %w", err)
	}
	for _, f := range d.Files {
		if _, err := f.WriteTo(dir); err != nil {
			return err
		}
	}
	p.written = dir
	return nil
}

// Dir returns the directory written by the last successful Share.
func (p *DirPlatform) Dir() string { return p.written }

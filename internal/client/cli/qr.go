package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/quickqr/internal/client/api"
	"github.com/dmitrijs2005/quickqr/internal/client/records"
)

// Generate creates a QR code. The URL and name may be given as arguments;
// otherwise they are prompted for. An empty name becomes
// records.DefaultName.
func (a *App) Generate(ctx context.Context, args []string) error {
	var form generateForm
	if len(args) > 0 {
		form.URL = args[0]
		form.Name = strings.Join(args[1:], " ")
	} else {
		var err error
		if form.URL, err = getSimpleText(a.reader, "Enter URL", a.out); err != nil {
			return err
		}
		if form.Name, err = getSimpleText(a.reader, "Enter name (empty for \""+records.DefaultName+"\")", a.out); err != nil {
			return err
		}
	}

	if err := a.check(form); err != nil {
		return a.fail(err)
	}
	if strings.TrimSpace(form.Name) == "" {
		form.Name = records.DefaultName
	}

	r, err := a.records.Create(ctx, api.GenerateRequest{URL: form.URL, Name: form.Name})
	if err != nil {
		return a.fail(err)
	}

	a.success("Created QR code %s (%s)", r.ID, r.Name)
	if r.ImageURL != "" {
		a.printf("Image: %s\n", r.ImageURL)
	}
	return nil
}

// Stats prints the dashboard counters.
func (a *App) Stats(ctx context.Context) error {
	if !a.ready() {
		return nil
	}
	c := a.records.Counts()
	headColor.Fprintln(a.out, "Dashboard")
	a.printf("Total QR codes: %d\nCreated today:  %d\nCategories:     %d\n", c.Total, c.Today, c.Categories)
	return nil
}

// History lists the records, optionally only those of one type.
func (a *App) History(ctx context.Context, args []string) error {
	tag := records.AllTypes
	if len(args) > 0 {
		tag = args[0]
	}
	if !a.ready() {
		return nil
	}
	a.list(a.records.Filtered(tag))
	return nil
}

// Today lists the records created on the current day.
func (a *App) Today(ctx context.Context) error {
	if !a.ready() {
		return nil
	}
	a.list(a.records.Today())
	return nil
}

// Delete asks for confirmation and then removes one record once the
// backend confirms.
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("Usage: delete <id>\n")
		return nil
	}
	id := args[0]

	label := "QR code " + id
	if r, ok := a.find(id); ok {
		label = fmt.Sprintf("QR code %s (%s)", id, r.Name)
	}
	answer, err := getSimpleText(a.reader, "Delete "+label+"? [y/N]", a.out)
	if err != nil {
		return err
	}
	if !confirmed(answer) {
		noteColor.Fprintln(a.out, "Deletion cancelled")
		return nil
	}

	if err := a.records.Delete(ctx, id); err != nil {
		return a.fail(err)
	}
	a.success("Deleted QR code %s", id)
	return nil
}

func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// Download saves the image of one record to path, or to "<name>.png" in
// the working directory.
func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("Usage: download <id> [path]\n")
		return nil
	}
	if !a.ready() {
		return nil
	}

	id := args[0]
	r, ok := a.find(id)
	if !ok {
		return a.fail(fmt.Errorf("%w: qr code %s", api.ErrNotFound, id))
	}
	if r.ImageURL == "" {
		noteColor.Fprintln(a.out, "Image not yet available")
		return nil
	}

	path := imageFileName(r)
	if len(args) > 1 {
		path = args[1]
	}

	img, err := a.images.Image(ctx, r.ImageURL)
	if err != nil {
		a.log.Info(ctx, "downloading qr image failed", "id", id, "error", err)
		return a.fail(err)
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return a.fail(err)
	}

	a.success("Saved %s to %s", r.Name, path)
	return nil
}

// imageFileName derives a file name in the working directory from the
// record name.
func imageFileName(r records.Record) string {
	name := strings.Map(func(c rune) rune {
		switch c {
		case '/', '\\', ':', 0:
			return '_'
		}
		return c
	}, strings.TrimSpace(r.Name))
	if name == "" || name == "." || name == ".." {
		name = "qr-" + r.ID
	}
	return name + ".png"
}

func (a *App) find(id string) (records.Record, bool) {
	for _, r := range a.records.Filtered(records.AllTypes) {
		if r.ID == id {
			return r, true
		}
	}
	return records.Record{}, false
}

// Reload fetches the history again.
func (a *App) Reload(ctx context.Context) error {
	if err := a.records.Load(ctx); err != nil {
		return a.fail(err)
	}
	a.success("History reloaded (%d QR codes)", len(a.records.State().Records))
	return nil
}

// ready reports whether the collection may be shown. It prints a notice
// while the first load is outstanding and an error indicator when the last
// load failed.
func (a *App) ready() bool {
	st := a.records.State()
	if st.Loading && !st.Loaded {
		noteColor.Fprintln(a.out, "Loading history...")
		return false
	}
	if st.LastError != nil {
		errColor.Fprintln(a.out, "Warning: "+describe(st.LastError)+" (showing last known data)")
	}
	return true
}

func (a *App) list(rs []records.Record) {
	if len(rs) == 0 {
		a.printf("No QR codes yet\n")
		return
	}
	printRecords(a.out, rs)
}

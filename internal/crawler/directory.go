package crawler

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BenjaminSRussell/linkaudit/internal/parser"
	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

// AuditDirectories checks the absolute outbound links of every file under
// dirs. Links between local files are only checked with CheckLocalLinks.
func (c *Crawler) AuditDirectories(ctx context.Context, dirs []string) (*types.Results, error) {
	c.log.Info().Strs("directories", dirs).Int("concurrency", c.config.Concurrency).Msg("Starting audit")

	for _, dir := range dirs {
		c.walkDirectory(ctx, dir)
	}

	c.wait()
	return c.results(), nil
}

func (c *Crawler) walkDirectory(ctx context.Context, root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			// Siblings of an unreadable entry are still walked
			c.log.Error().Err(&DirectoryReadError{Path: path, Err: err}).Msg("Failed to read directory entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() || !c.wantFile(path) {
			return nil
		}

		c.auditFile(ctx, root, path)
		return nil
	})
	if err != nil {
		c.log.Warn().Str("directory", root).Err(err).Msg("Directory walk stopped")
	}
}

// wantFile applies the FileExtensions filter
func (c *Crawler) wantFile(path string) bool {
	if len(c.config.FileExtensions) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range c.config.FileExtensions {
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func (c *Crawler) auditFile(ctx context.Context, root, path string) {
	body, err := os.ReadFile(path)
	if err != nil {
		c.log.Error().Err(&DirectoryReadError{Path: path, Err: err}).Msg("Failed to read file")
		return
	}

	hrefs, err := parser.ExtractHrefs(body)
	if err != nil {
		c.report(types.Outcome{URL: path, Status: types.StatusParseError, Internal: true, Err: err})
		return
	}

	c.log.Debug().Str("file", path).Int("links", len(hrefs)).Msg("Auditing file")

	for _, href := range hrefs {
		if parser.IsMailto(href) {
			continue
		}

		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			c.report(types.Outcome{
				URL:      href,
				Referrer: path,
				Status:   types.StatusParseError,
				Err:      &ParseError{Href: href, Page: path, Err: err},
			})
			continue
		}

		if parser.IsAbsoluteHref(href) {
			if !isWebURL(ref) {
				c.log.Debug().Str("href", href).Str("referrer", path).Msg("Skipping non-web link")
				continue
			}
			c.submitExternal(ctx, ref, path)
			continue
		}

		if c.config.CheckLocalLinks {
			c.checkLocalLink(root, path, ref)
		}
	}
}

// checkLocalLink resolves a relative reference as a file path and reports a
// missing target. Root-relative paths resolve against the walked directory.
func (c *Crawler) checkLocalLink(root, file string, ref *url.URL) {
	// Scheme-relative links and fragment or query only links have no file
	if ref.Scheme != "" || ref.Host != "" || ref.Path == "" {
		return
	}

	var target string
	if strings.HasPrefix(ref.Path, "/") {
		target = filepath.Join(root, filepath.FromSlash(ref.Path))
	} else {
		target = filepath.Join(filepath.Dir(file), filepath.FromSlash(ref.Path))
	}

	c.discovered.Add(1)
	c.processed.Add(1)
	outcome := types.Outcome{URL: target, Referrer: file, Internal: true, Status: types.StatusOK}

	if _, err := os.Stat(target); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Error().Err(&DirectoryReadError{Path: target, Err: err}).Msg("Failed to stat linked file")
			return
		}
		outcome.Status = types.StatusMissingFile
		outcome.Err = &MissingFileError{Path: target, Err: err}
	}

	c.report(outcome)
}

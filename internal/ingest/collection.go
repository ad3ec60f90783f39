package ingest

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Collection names are derived deterministically from the source
// descriptor: re-ingesting the identical folder, file set or URL lands
// in the same collection and replaces its contents.

func hash12(s string) string {
	sum := md5.Sum([]byte(s))
	return fmt.Sprintf("%x", sum)[:12]
}

func folderCollection(dir string) string {
	base := filepath.Base(dir)
	if len(base) > 20 {
		base = base[:20]
	}
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("docs_%s_%s", base, hash12(dir))
}

func filesCollection(paths []string) string {
	return fmt.Sprintf("uploads_%s", hash12(strings.Join(paths, "")))
}

func urlCollection(u *url.URL) string {
	domain := strings.ReplaceAll(u.Host, ".", "_")
	if len(domain) > 20 {
		domain = domain[:20]
	}
	return fmt.Sprintf("url_%s_%s", domain, hash12(u.String()))
}

// Package detect classifies deployment tags into the mechanism used to
// deploy them. Detection is a pure heuristic over the tag string; callers
// that know the mechanism pass it explicitly and skip detection.
package detect

import (
	"regexp"
	"strings"
)

// Kind identifies the deployment mechanism behind a tag.
type Kind string

const (
	KindDocker Kind = "docker"
	KindGit    Kind = "git"
	KindPM2    Kind = "pm2"
	KindCustom Kind = "custom"
)

// PM2Prefix marks tags that name a pm2-managed process.
const PM2Prefix = "pm2:"

var (
	// image:tag with only word characters, slashes, dots and dashes
	shortImageRe = regexp.MustCompile(`^[\w/.-]+:[\w/.-]+$`)

	// 7-40 lowercase hex characters, a git commit hash
	commitHashRe = regexp.MustCompile(`^[a-f0-9]{7,40}$`)

	// v1.2, 2.0, v1.2.3 and friends
	versionTagRe = regexp.MustCompile(`^v?\d+\.\d+`)
)

// Detect classifies a tag. It is total: every input maps to a Kind.
//
// Rules are ordered and the first match wins:
//  1. a pm2: prefix is pm2 (checked first so pm2:app is never read as image:tag)
//  2. registry/path:tag forms are docker
//  3. short image:tag forms are docker
//  4. commit hashes are git
//  5. version tags (v1.2, 2.0) are git
//  6. everything else is custom
func Detect(tag string) Kind {
	if strings.HasPrefix(tag, PM2Prefix) {
		return KindPM2
	}
	if strings.Contains(tag, "/") && strings.Contains(tag, ":") {
		return KindDocker
	}
	if shortImageRe.MatchString(tag) {
		return KindDocker
	}
	if commitHashRe.MatchString(tag) {
		return KindGit
	}
	if versionTagRe.MatchString(tag) {
		return KindGit
	}
	return KindCustom
}

// PM2ProcessName derives the pm2 process name from a tag: the pm2: prefix
// is stripped and anything from the first @ on is dropped, so a tag like
// pm2:app@1.0 restarts the process "app".
func PM2ProcessName(tag string) string {
	name := strings.TrimPrefix(tag, PM2Prefix)
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return name
}

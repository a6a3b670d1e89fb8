// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package models

import "fmt"

// ImageRequest is the uniform pull request derived from a selection.
// A selection is either a whole repository ("pull all tags") or a single
// image tag; it is resolved into an ImageRequest once, at the API boundary,
// so downstream code never branches on selection kind.
type ImageRequest struct {
	Repository string // Repository name (used for pull-all requests)
	Tag        string // Tag exactly as supplied by the client
	PullAll    bool   // Whether every tag in the repository is requested
}

// NewImageRequest resolves a selection tuple into an ImageRequest.
func NewImageRequest(repository, tag string, pullAll bool) ImageRequest {
	return ImageRequest{
		Repository: repository,
		Tag:        tag,
		PullAll:    pullAll,
	}
}

// String renders the request in the engine pull command grammar:
// "<repository> -a" for pull-all selections, the tag verbatim otherwise.
// Clients pulling a tag from a repository context supply the
// repository-qualified "repo:tag" form as the tag. The two shapes are
// syntactically distinct, so the downstream command is unambiguous.
func (r ImageRequest) String() string {
	if r.PullAll {
		return fmt.Sprintf("%s -a", r.Repository)
	}
	return r.Tag
}

// Credentials holds the username/password pair used for one registry login.
// The password is a secret: it is only ever written to the login process's
// input stream and must never reach a log sink or command line.
type Credentials struct {
	Username string
	Password string
}

// Package github resolves GitHub user profiles for video rendering.
//
// Well-known logins are served from a static in-process cache so the demo
// works without burning unauthenticated API quota. Everything else costs
// exactly one request against the GitHub REST API.
package github

// Profile is the subset of a GitHub user that the video composition needs.
type Profile struct {
	AvatarURL string `json:"avatar_url"`
	Login     string `json:"login"`
	Followers int    `json:"followers"`
}

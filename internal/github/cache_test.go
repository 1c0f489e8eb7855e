package github

import "testing"

func TestCacheFind(t *testing.T) {
	cache := NewStaticCache()

	tests := []struct {
		name      string
		login     string
		wantFound bool
	}{
		{"known login", "mjackson", true},
		{"another known login", "kentcdodds", true},
		{"unknown login", "torvalds", false},
		{"empty login", "", false},
		{"case sensitive", "MJackson", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, found := cache.Find(tt.login)
			if found != tt.wantFound {
				t.Fatalf("Find(%q) found=%v, want %v", tt.login, found, tt.wantFound)
			}
			if found && p.Login != tt.login {
				t.Errorf("Find(%q) returned profile for %q", tt.login, p.Login)
			}
		})
	}
}

func TestCacheProfilesComplete(t *testing.T) {
	cache := NewStaticCache()

	for _, login := range []string{"ryanflorence", "mjackson", "kentcdodds", "jacob-ebey", "chaance", "lgastler"} {
		p, found := cache.Find(login)
		if !found {
			t.Fatalf("expected %q in static cache", login)
		}
		if p.AvatarURL == "" {
			t.Errorf("profile %q has empty avatar URL", login)
		}
		if p.Followers <= 0 {
			t.Errorf("profile %q has non-positive follower count", login)
		}
	}
}

func TestNewCacheCustomProfiles(t *testing.T) {
	cache := NewCache([]Profile{{Login: "octocat", AvatarURL: "https://example.com/a.png", Followers: 3}})

	if _, found := cache.Find("octocat"); !found {
		t.Error("expected custom profile to be found")
	}
	if _, found := cache.Find("mjackson"); found {
		t.Error("custom cache should not contain static profiles")
	}
}

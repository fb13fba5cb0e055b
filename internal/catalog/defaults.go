package catalog

// Default is the built-in catalog used when no usable catalog file exists.
func Default() *Catalog {
	return New(
		Site{
			Name:     "Instagram",
			URL:      "https://www.instagram.com/{}/",
			Category: "social",
			Rules: []Rule{
				StatusCodeRule{Expected: 200},
				RedirectRule{Pattern: "accounts/login"},
				ContentRule{Pattern: "Sorry, this page isn't available"},
				APIRule{URL: "https://www.instagram.com/api/v1/users/web_profile_info/?username={}"},
			},
		},
		Site{
			Name:     "GitHub",
			URL:      "https://github.com/{}",
			Category: "code",
			Rules: []Rule{
				StatusCodeRule{Expected: 200},
				ContentRule{Pattern: "This is not the web page you are looking for"},
			},
			RegexCheck: `^[a-zA-Z0-9](?:[a-zA-Z0-9]|-(?=[a-zA-Z0-9])){0,38}$`,
			Claimed:    "github",
			Unclaimed:  "noonewouldeverusethis7",
		},
	)
}

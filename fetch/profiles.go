package fetch

// Profile is a browser identity: a User-Agent plus the fixed header set
// that browser sends with a top-level navigation.
type Profile int

const (
	ProfileMinimal Profile = iota
	ProfileWindows
	ProfileMacOS
	ProfileIOS
	ProfileAndroid
)

// String returns the display name used in telemetry and stored
// performance profiles.
func (p Profile) String() string {
	switch p {
	case ProfileMinimal:
		return "Minimal"
	case ProfileWindows:
		return "Windows (Chrome)"
	case ProfileMacOS:
		return "macOS (Safari)"
	case ProfileIOS:
		return "iOS (Safari)"
	case ProfileAndroid:
		return "Android (Chrome)"
	}
	return "Unknown"
}

// Header is one outgoing header pair.
type Header struct {
	Name  string
	Value string
}

const (
	acceptChrome = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"
	acceptSafari = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	secChUA      = `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`
)

// UserAgent returns the profile's User-Agent string.
func (p Profile) UserAgent() string {
	switch p {
	case ProfileMinimal:
		// Simple but still identifies as a browser.
		return "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	case ProfileWindows:
		// Chrome on Windows 10, the most common desktop.
		return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	case ProfileMacOS:
		return "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Safari/605.1.15"
	case ProfileIOS:
		return "Mozilla/5.0 (iPhone; CPU iPhone OS 18_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0 Mobile/15E148 Safari/604.1"
	case ProfileAndroid:
		return "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.6778.200 Mobile Safari/537.36"
	}
	return "Mozilla/5.0"
}

// Headers returns the profile's header set, without User-Agent,
// in definition order.
func (p Profile) Headers() []Header {
	switch p {
	case ProfileMinimal:
		return []Header{
			{"Accept", "*/*"},
			{"Accept-Encoding", "gzip, deflate"},
		}
	case ProfileWindows:
		return []Header{
			{"Accept", acceptChrome},
			{"Accept-Language", "en-US,en;q=0.9"},
			{"Accept-Encoding", "gzip, deflate, br, zstd"},
			{"Connection", "keep-alive"},
			{"Upgrade-Insecure-Requests", "1"},
			{"Sec-Fetch-Dest", "document"},
			{"Sec-Fetch-Mode", "navigate"},
			{"Sec-Fetch-Site", "none"},
			{"Sec-Ch-Ua", secChUA},
			{"Sec-Ch-Ua-Mobile", "?0"},
			{"Sec-Ch-Ua-Platform", `"Windows"`},
		}
	case ProfileMacOS, ProfileIOS:
		// Safari sends no sec-ch-ua suite.
		return []Header{
			{"Accept", acceptSafari},
			{"Accept-Language", "en-US,en;q=0.9"},
			{"Accept-Encoding", "gzip, deflate, br"},
			{"Connection", "keep-alive"},
		}
	case ProfileAndroid:
		return []Header{
			{"Accept", acceptChrome},
			{"Accept-Language", "en-US,en;q=0.9"},
			{"Accept-Encoding", "gzip, deflate, br, zstd"},
			{"Connection", "keep-alive"},
			{"Upgrade-Insecure-Requests", "1"},
			{"Sec-Fetch-Dest", "document"},
			{"Sec-Fetch-Mode", "navigate"},
			{"Sec-Fetch-Site", "none"},
			{"Sec-Fetch-User", "?1"},
			{"Sec-Ch-Ua", secChUA},
			{"Sec-Ch-Ua-Mobile", "?1"},
			{"Sec-Ch-Ua-Platform", `"Android"`},
		}
	}
	return nil
}

// ladderFor maps a strategy to its profile order. The adaptive ladder is
// exactly Minimal, Windows, IOS.
func ladderFor(adaptive bool) []Profile {
	if adaptive {
		return []Profile{ProfileMinimal, ProfileWindows, ProfileIOS}
	}
	return []Profile{ProfileMinimal}
}

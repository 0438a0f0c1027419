// Package crawler fetches corpus articles and extracts their outbound links.
//
// # Components
//
//   - Spider: polite, retrying HTTP fetcher bound to one corpus base URL
//   - Session: visited-URL scope; a URL is fetched at most once per session
//   - Extractor: turns an article document into ordered link titles
//   - Pacer: waits between requests to stay within the corpus's rate
//   - NewHTTPClient: pooled transport, optionally dialing through SOCKS5
//
// # Politeness
//
// Every request attempt, successful or not, is followed by a fixed pause of
// 60s / requests-per-minute. Failed attempts are retried up to three times
// with the same pause and no growth. When several goroutines share a Spider,
// a shared rate.Limiter bounds their aggregate rate.
//
// # Usage
//
//	spider, err := crawler.NewSpider(http.DefaultClient, "https://uk.wikipedia.org")
//	session := spider.NewSession()
//	links, err := session.Links(ctx, "Рим")
package crawler

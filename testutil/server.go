// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// This file includes modifications to code originally developed by Adam Tauber,
// licensed under the Apache License, Version 2.0.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutil provides a fake website served over httptest for
// crawl and analysis tests: robots.txt with a sitemap directive, a
// sitemap index with two child sitemaps, and a handful of content pages
// with realistic metadata.
package testutil

import (
	"compress/gzip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"
)

// RobotsFile is served at /robots.txt. It disallows /admin/ and points
// at the sitemap index; the %s placeholder is the server base URL.
const RobotsFile = `User-agent: *
Allow: /
Disallow: /admin/

Sitemap: %s/sitemap_index.xml
`

// NewSiteServer starts an httptest server hosting the fake site. Callers
// must Close it.
func NewSiteServer() *httptest.Server {
	srv := httptest.NewUnstartedServer(nil)
	srv.Config.Handler = siteMux(func() string { return srv.URL })
	srv.Start()
	return srv
}

// siteMux builds the site handler. base is deferred because the server
// URL is unknown until it starts.
func siteMux(base func() string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, RobotsFile, base())
	})

	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/sitemap_pages.xml</loc></sitemap>
  <sitemap><loc>%s/sitemap_blog.xml</loc></sitemap>
</sitemapindex>`, base(), base())
	})

	mux.HandleFunc("/sitemap_pages.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/</loc></url>
  <url><loc>%s/about</loc></url>
  <url><loc>%s/pricing</loc></url>
</urlset>`, base(), base(), base())
	})

	mux.HandleFunc("/sitemap_blog.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/blog/first-post</loc></url>
  <url><loc>%s/blog/second-post</loc></url>
</urlset>`, base(), base())
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeHTML(w, `<!DOCTYPE html>
<html lang="en">
<head>
<title>Acme Widgets — Home</title>
<meta name="description" content="Acme sells fine widgets.">
<link rel="canonical" href="`+base()+`/">
</head>
<body>
<h1>Acme Widgets</h1>
<nav>
<a href="/about">About</a>
<a href="/pricing">Pricing</a>
<a href="/blog/first-post">Blog</a>
<a href="/admin/login">Admin</a>
<a href="mailto:hi@acme.test">Mail</a>
</nav>
<p>Welcome to Acme.</p>
</body>
</html>`)
	})

	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, `<!DOCTYPE html>
<html lang="en">
<head>
<title>About Acme</title>
<meta name="author" content="Jo Acme">
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Organization","name":"Acme"}
</script>
</head>
<body><h1>About us</h1><p>Founded long ago.</p></body>
</html>`)
	})

	mux.HandleFunc("/pricing", func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, `<!DOCTYPE html>
<html lang="en">
<head><title>Pricing</title></head>
<body><h1>Pricing</h1><table><tr><td>Basic</td><td>$9</td></tr></table></body>
</html>`)
	})

	mux.HandleFunc("/blog/first-post", func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, `<!DOCTYPE html>
<html lang="en">
<head>
<title>First Post</title>
<meta property="article:published_time" content="2024-05-01T10:00:00Z">
<meta property="article:modified_time" content="2024-06-01T10:00:00Z">
</head>
<body>
<article>
<h1>First Post</h1>
<p>Words about widgets.</p>
<a href="/blog/second-post">next</a>
<a href="https://elsewhere.example/external">external</a>
</article>
</body>
</html>`)
	})

	mux.HandleFunc("/blog/second-post", func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, `<!DOCTYPE html>
<html lang="en">
<head><title>Second Post</title></head>
<body><article><h1>Second Post</h1><p>More words.</p></article></body>
</html>`)
	})

	mux.HandleFunc("/admin/login", func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, `<html><head><title>Admin</title></head><body>restricted</body></html>`)
	})

	mux.HandleFunc("/gzipped", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			writeHTML(w, `<html><head><title>Plain</title></head><body>plain</body></html>`)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(`<html><head><title>Gzipped</title></head><body>compressed</body></html>`))
		gz.Close()
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeHTML(w, `<html><head><title>Slow</title></head><body>late</body></html>`)
	})

	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	mux.HandleFunc("/styles.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte("body { color: black }"))
	})

	return mux
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(200)
	w.Write([]byte(body))
}

package handlers

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/render"
	"github.com/BorisDmv/vignettes/internal/store"
)

// PageHandler serves a server-rendered page per post, with Open Graph
// and Twitter tags so shared links get a preview.
type PageHandler struct {
	store     store.Store
	baseURL   string
	blogTitle string
}

func NewPageHandler(s store.Store, baseURL, blogTitle string) *PageHandler {
	return &PageHandler{store: s, baseURL: strings.TrimRight(baseURL, "/"), blogTitle: blogTitle}
}

func (h *PageHandler) requestBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") || r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = "localhost:8080"
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}

// absolute leaves full URLs alone and prefixes server paths. Embedded
// data URLs are not usable in link previews.
func absolute(baseURL, ref string) string {
	switch {
	case ref == "" || strings.HasPrefix(ref, "data:"):
		return ""
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return ref
	}
	return baseURL + "/" + strings.TrimLeft(ref, "/")
}

func (h *PageHandler) Post(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	posts, err := h.store.FetchAll(r.Context())
	if err != nil {
		respondStoreError(w, err, "failed to load post")
		return
	}
	var post *models.Post
	for i := range posts {
		if posts[i].ID == id {
			post = &posts[i]
			break
		}
	}
	if post == nil {
		http.Error(w, "Post not found.", http.StatusNotFound)
		return
	}

	baseURL := h.requestBaseURL(r)
	pageURL := fmt.Sprintf("%s/post/%s", baseURL, id)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(sharePage(*post, h.blogTitle, pageURL, absolute(baseURL, post.ImageURL), absolute(baseURL, post.AudioURL))))
}

func sharePage(p models.Post, blogTitle, pageURL, image, audio string) string {
	title := html.EscapeString(p.Title)
	desc := html.EscapeString(render.Description(p.Content))
	author := html.EscapeString(p.Author)
	escURL := html.EscapeString(pageURL)

	var meta, media strings.Builder
	if image != "" {
		img := html.EscapeString(image)
		fmt.Fprintf(&meta, "  <meta property=\"og:image\" content=\"%s\" />\n", img)
		fmt.Fprintf(&meta, "  <meta name=\"twitter:image\" content=\"%s\" />\n", img)
		fmt.Fprintf(&media, "  <img src=\"%s\" alt=\"%s\" />\n", img, title)
	}
	if audio != "" {
		fmt.Fprintf(&media, "  <audio controls src=\"%s\"></audio>\n", html.EscapeString(audio))
	}

	var tags []string
	for _, t := range p.Hashtags {
		tags = append(tags, html.EscapeString(t))
	}

	return fmt.Sprintf(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>%s • %s</title>
  <meta property="og:type" content="article" />
  <meta property="og:url" content="%s" />
  <meta property="og:title" content="%s" />
  <meta property="og:description" content="%s" />
  <meta name="twitter:card" content="summary_large_image" />
  <meta name="twitter:title" content="%s" />
  <meta name="twitter:description" content="%s" />
%s  <meta name="author" content="%s" />
  <meta name="robots" content="index,follow" />
  <link rel="canonical" href="%s" />
</head>
<body>
<article>
  <h1>%s</h1>
  <p>%s · %s</p>
%s  <div>%s</div>
  <p>%s</p>
</article>
</body>
</html>`,
		title, html.EscapeString(blogTitle),
		escURL, title, desc,
		title, desc,
		meta.String(),
		author,
		escURL,
		title,
		author, html.EscapeString(p.Date),
		media.String(),
		render.HTML(p.Content),
		strings.Join(tags, " "),
	)
}

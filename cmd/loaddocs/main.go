package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// loaddocs bulk-loads the text files of a folder into a collection through
// the HTTP API, then triggers one discovery run for the whole batch.

type apiDocument struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func postJSON(url string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func titleFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}

func main() {
	_ = godotenv.Load()

	var (
		dir          = flag.String("dir", "./documents", "folder containing .txt/.md documents")
		apiBase      = flag.String("api", "http://localhost:8080", "base URL of the running server")
		collectionID = flag.String("collection", "", "existing collection id (created when empty)")
		name         = flag.String("name", "Documents Collection", "name for a newly created collection")
	)
	flag.Parse()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		fail("read dir %s: %v", *dir, err)
	}

	var docs []apiDocument
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		raw, readErr := os.ReadFile(filepath.Join(*dir, e.Name()))
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", e.Name(), readErr)
			continue
		}
		content := strings.TrimSpace(string(raw))
		if content == "" {
			continue
		}
		docs = append(docs, apiDocument{Content: content, Title: titleFromFilename(e.Name())})
	}
	if len(docs) == 0 {
		fail("no loadable documents in %s", *dir)
	}

	target := *collectionID
	if target == "" {
		var created struct {
			Collection struct {
				ID string `json:"id"`
			} `json:"collection"`
		}
		if err := postJSON(*apiBase+"/api/collections", map[string]string{
			"name":        *name,
			"description": "Documents loaded from " + *dir,
		}, &created); err != nil {
			fail("create collection: %v", err)
		}
		target = created.Collection.ID
		fmt.Printf("Created collection %s\n", target)
	}

	var added struct {
		Count int `json:"count"`
		Job   struct {
			ID string `json:"id"`
		} `json:"job"`
	}
	if err := postJSON(fmt.Sprintf("%s/api/collections/%s/documents", *apiBase, target), map[string]any{
		"documents":         docs,
		"trigger_discovery": true,
	}, &added); err != nil {
		fail("add documents: %v", err)
	}
	fmt.Printf("Added %d documents to collection %s; discovery job %s queued\n",
		added.Count, target, added.Job.ID)
}

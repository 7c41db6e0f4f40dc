// Package dictionary loads the word list used to validate claims.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/logger"
)

// minLen is the shortest word kept from a source. Rooms enforce their own,
// usually longer, minimum on top of this.
const minLen = 2

// Dictionary is a read-only set of uppercase words. It is safe for
// concurrent use once loaded.
type Dictionary struct {
	words map[string]struct{}
}

// New builds a dictionary from an in-memory word list
func New(words ...string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		d.add(w)
	}
	return d
}

// Load reads every source and merges them. A source is a file path or an
// http(s) URL holding one word per line. Any failing source fails the load.
func Load(sources ...string) (*Dictionary, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no dictionary sources configured")
	}

	d := &Dictionary{words: make(map[string]struct{})}
	client := &http.Client{Timeout: 30 * time.Second}

	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		before := d.Len()
		if err := d.loadSource(client, src); err != nil {
			return nil, fmt.Errorf("failed to load dictionary %s: %w", src, err)
		}
		logger.Info("Dictionary source loaded", "source", src, "added", d.Len()-before)
	}

	if d.Len() == 0 {
		return nil, fmt.Errorf("dictionary is empty after loading %d sources", len(sources))
	}
	return d, nil
}

func (d *Dictionary) loadSource(client *http.Client, src string) error {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := client.Get(src)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}
		return d.read(resp.Body)
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return d.read(f)
}

func (d *Dictionary) read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		d.add(scanner.Text())
	}
	return scanner.Err()
}

func (d *Dictionary) add(raw string) {
	w := strings.ToUpper(strings.TrimSpace(raw))
	if len(w) < minLen {
		return
	}
	for i := 0; i < len(w); i++ {
		if w[i] < 'A' || w[i] > 'Z' {
			return
		}
	}
	d.words[w] = struct{}{}
}

// Contains reports whether word, already uppercased, is in the dictionary
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[word]
	return ok
}

// Len returns the number of distinct words
func (d *Dictionary) Len() int {
	return len(d.words)
}

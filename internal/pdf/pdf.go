// Package pdf extracts embedded raster images from PDF files and recognizes
// the digits in them.
package pdf

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/digitread/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExtractImages extracts the embedded images of the selected pages, keyed by
// page number. An empty pageRange selects all pages.
func ExtractImages(filename string, pageRange string) (map[int][]image.Image, error) {
	pageNumbers, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "digitread-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pageStrings []string
	for _, n := range pageNumbers {
		pageStrings = append(pageStrings, strconv.Itoa(n))
	}

	if err := api.ExtractImagesFile(filename, tempDir, pageStrings, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	prefix := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	result, err := collectExtractedImages(tempDir, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}
	return result, nil
}

type extracted struct {
	page int
	name string
	img  image.Image
}

// collectExtractedImages loads the files pdfcpu wrote to dir and groups them
// by page, ordered by file name within a page. Files that are not page
// images or cannot be decoded are skipped.
func collectExtractedImages(dir, prefix string) (map[int][]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var found []extracted
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		page, err := parsePageFromFilename(e.Name(), prefix)
		if err != nil {
			continue
		}
		img, _, err := utils.LoadImage(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		found = append(found, extracted{page: page, name: e.Name(), img: img})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].page != found[j].page {
			return found[i].page < found[j].page
		}
		return naturalLess(found[i].name, found[j].name)
	})

	result := make(map[int][]image.Image)
	for _, f := range found {
		result[f.page] = append(result[f.page], f.img)
	}
	return result, nil
}

// parsePageFromFilename reads the page number from an extracted file name.
// pdfcpu writes "<prefix>_<page>_<id>.<ext>"; "page_<page>_..." is also
// accepted.
func parsePageFromFilename(filename, prefix string) (int, error) {
	var rest string
	switch {
	case prefix != "" && strings.HasPrefix(filename, prefix+"_"):
		rest = strings.TrimPrefix(filename, prefix+"_")
	case strings.HasPrefix(filename, "page_"):
		rest = strings.TrimPrefix(filename, "page_")
	default:
		return 0, errors.New("not a page file")
	}

	field, _, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, errors.New("invalid filename format")
	}
	page, err := strconv.Atoi(field)
	if err != nil || page <= 0 {
		return 0, errors.New("invalid page number")
	}
	return page, nil
}

// naturalLess orders names with embedded numbers numerically, so that
// "x_1_Im2" sorts before "x_1_Im10".
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := leadingDigits(a), leadingDigits(b)
		if da != "" && db != "" {
			na, _ := strconv.Atoi(da)
			nb, _ := strconv.Atoi(db)
			if na != nb {
				return na < nb
			}
			a, b = a[len(da):], b[len(db):]
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

// parsePageRange parses a page selection like "1-5" or "1,3,5".
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses "3" or "1-5".
func parseRangeToken(part string) ([]int, error) {
	if startStr, endStr, ok := strings.Cut(part, "-"); ok {
		start, err := strconv.Atoi(strings.TrimSpace(startStr))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", startStr)
		}
		end, err := strconv.Atoi(strings.TrimSpace(endStr))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", endStr)
		}
		if start <= 0 {
			return nil, fmt.Errorf("invalid start page: %d", start)
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil || page <= 0 {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}

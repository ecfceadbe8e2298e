package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"hardsub/internal/config"
	"hardsub/internal/media/frames"
)

// regionsFile is the --regions document:
//
//	default = { bottom = 0.80, top = 0.95 }
//
//	[videos]
//	"ep01.mp4" = { bottom = 0.75, top = 0.92 }
//
// Relative video keys are resolved against the file's directory.
type regionsFile struct {
	Default *frames.Region           `toml:"default"`
	Videos  map[string]frames.Region `toml:"videos"`
}

// regionSet resolves the crop region for each video.
type regionSet struct {
	global   *frames.Region
	fallback *frames.Region
	byPath   map[string]frames.Region
	byBase   map[string]frames.Region
}

func loadRegions(globalFlag, mapPath string) (*regionSet, error) {
	set := &regionSet{
		byPath: make(map[string]frames.Region),
		byBase: make(map[string]frames.Region),
	}
	if globalFlag != "" {
		region, err := frames.ParseRegion(globalFlag)
		if err != nil {
			return nil, fmt.Errorf("--region: %w", err)
		}
		set.global = &region
	}
	if mapPath == "" {
		return set, nil
	}

	path, err := config.ExpandPath(mapPath)
	if err != nil {
		return nil, fmt.Errorf("--regions: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	var doc regionsFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse regions file %s: %w", path, err)
	}
	if doc.Default != nil {
		if err := doc.Default.Validate(); err != nil {
			return nil, fmt.Errorf("regions file default: %w", err)
		}
		set.fallback = doc.Default
	}

	keys := make([]string, 0, len(doc.Videos))
	for key := range doc.Videos {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	baseDir := filepath.Dir(path)
	baseCount := make(map[string]int)
	for _, key := range keys {
		region := doc.Videos[key]
		if err := region.Validate(); err != nil {
			return nil, fmt.Errorf("regions file entry %q: %w", key, err)
		}
		resolved := key
		switch {
		case strings.HasPrefix(key, "~"):
			if resolved, err = config.ExpandPath(key); err != nil {
				return nil, fmt.Errorf("regions file entry %q: %w", key, err)
			}
		case !filepath.IsAbs(key):
			resolved = filepath.Join(baseDir, key)
		}
		set.byPath[filepath.Clean(resolved)] = region
		base := filepath.Base(key)
		baseCount[base]++
		set.byBase[base] = region
	}
	for base, n := range baseCount {
		if n > 1 {
			delete(set.byBase, base)
		}
	}
	return set, nil
}

// For returns the region for video, or nil for the full frame. A per-video
// entry wins over --region, which wins over the file default.
func (s *regionSet) For(video string) *frames.Region {
	if s == nil {
		return nil
	}
	if region, ok := s.byPath[filepath.Clean(video)]; ok {
		return &region
	}
	if region, ok := s.byBase[filepath.Base(video)]; ok {
		return &region
	}
	if s.global != nil {
		region := *s.global
		return &region
	}
	if s.fallback != nil {
		region := *s.fallback
		return &region
	}
	return nil
}

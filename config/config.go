// Package config reads the geometry of a two-level cache hierarchy.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
)

// LevelConfig is the geometry of one cache level.
type LevelConfig struct {
	BlockSize     int
	Associativity int
	SizeKB        int
}

// NumSets returns the number of sets that the geometry implies.
func (c LevelConfig) NumSets() int {
	return c.SizeKB * cache.KB / (c.BlockSize * c.Associativity)
}

// CacheBuilder returns a builder for a level with this geometry.
func (c LevelConfig) CacheBuilder() cache.Builder {
	return cache.MakeBuilder().
		WithBlockSize(c.BlockSize).
		WithWayAssociativity(c.Associativity).
		WithSizeKB(c.SizeKB)
}

// Config is the geometry of both levels.
type Config struct {
	L1 LevelConfig
	L2 LevelConfig
}

// HierarchyBuilder returns a builder for a hierarchy with this geometry.
func (c Config) HierarchyBuilder() hierarchy.Builder {
	return hierarchy.MakeBuilder().
		WithL1(c.L1.CacheBuilder()).
		WithL2(c.L2.CacheBuilder())
}

// Load reads a configuration in the form of
//
//	L1: <blockSize> <associativity> <sizeKB>
//	L2: <blockSize> <associativity> <sizeKB>
//
// The tokens can be separated by any white space. The label of each group is
// skipped without looking at its content.
func Load(r io.Reader) (Config, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	c := Config{}

	for _, group := range []struct {
		name  string
		level *LevelConfig
	}{
		{"L1", &c.L1},
		{"L2", &c.L2},
	} {
		if !scanner.Scan() {
			return Config{}, missing(scanner, group.name, "label")
		}

		fields := []*int{
			&group.level.BlockSize,
			&group.level.Associativity,
			&group.level.SizeKB,
		}
		for _, field := range fields {
			if !scanner.Scan() {
				return Config{}, missing(scanner, group.name, "value")
			}

			v, err := strconv.Atoi(scanner.Text())
			if err != nil {
				return Config{}, fmt.Errorf("config: %s: %w", group.name, err)
			}

			*field = v
		}
	}

	return c, nil
}

func missing(scanner *bufio.Scanner, group, what string) error {
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: %s: %w", group, err)
	}

	return fmt.Errorf("config: %s: missing %s: %w",
		group, what, io.ErrUnexpectedEOF)
}

// LoadFile reads a configuration from a file.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Write renders the configuration in the format that Load reads.
func (c Config) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "L1: %d %d %d\nL2: %d %d %d\n",
		c.L1.BlockSize, c.L1.Associativity, c.L1.SizeKB,
		c.L2.BlockSize, c.L2.Associativity, c.L2.SizeKB)

	return err
}

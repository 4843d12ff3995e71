package overlap

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the tunable parameters of the similarity heuristic and
// the subgroup clustering rule.
type Config struct {
	// SubgroupThreshold is the minimum pairwise score (0-100) for two
	// records to be clustered into the same subgroup.
	// Default: 90.
	SubgroupThreshold float64

	// TitleWeight is the maximum contribution of the title-signature
	// edit distance to the weighted score. Default: 30.
	TitleWeight int

	// JournalWeight is the maximum contribution of the journal-signature
	// edit distance. Two records with no journal signature at all score
	// the full weight (absence is non-contradictory); exactly one
	// missing signature scores zero. Default: 20.
	JournalWeight int

	// YearWeight is the score for an exact publication-year match.
	// Default: 20.
	YearWeight int

	// YearAdjacentScore is the score for years one apart. Default: 16.
	YearAdjacentScore int

	// YearNearScore is the score for years two apart. Default: 12.
	YearNearScore int

	// AuthorWeight is the maximum contribution of the author-surname
	// comparison. Default: 30.
	AuthorWeight int

	// AuthorCloseCutoff is the raw edit distance over the concatenated
	// surname lists at or below which the comparison short-circuits to
	// AuthorWeight minus the raw distance. Default: 5.
	AuthorCloseCutoff int
}

// DefaultConfig returns the configuration the output format was
// calibrated against. The four weights sum to 100, so a perfect
// heuristic match ties with a shared PMID.
func DefaultConfig() Config {
	return Config{
		SubgroupThreshold: 90,
		TitleWeight:       30,
		JournalWeight:     20,
		YearWeight:        20,
		YearAdjacentScore: 16,
		YearNearScore:     12,
		AuthorWeight:      30,
		AuthorCloseCutoff: 5,
	}
}

// Validate checks if the configuration has valid values.
func (c Config) Validate() error {
	if c.SubgroupThreshold < 0 || c.SubgroupThreshold > 100 {
		return fmt.Errorf("subgroup_threshold must be between 0 and 100 (got %g)", c.SubgroupThreshold)
	}
	if c.TitleWeight < 0 {
		return fmt.Errorf("title_weight cannot be negative (got %d)", c.TitleWeight)
	}
	if c.JournalWeight < 0 {
		return fmt.Errorf("journal_weight cannot be negative (got %d)", c.JournalWeight)
	}
	if c.YearWeight < 0 {
		return fmt.Errorf("year_weight cannot be negative (got %d)", c.YearWeight)
	}
	if c.AuthorWeight < 0 {
		return fmt.Errorf("author_weight cannot be negative (got %d)", c.AuthorWeight)
	}
	if c.YearAdjacentScore > c.YearWeight {
		return fmt.Errorf("year_adjacent_score (%d) cannot exceed year_weight (%d)", c.YearAdjacentScore, c.YearWeight)
	}
	if c.YearNearScore > c.YearAdjacentScore {
		return fmt.Errorf("year_near_score (%d) cannot exceed year_adjacent_score (%d)", c.YearNearScore, c.YearAdjacentScore)
	}
	if c.AuthorCloseCutoff < 0 {
		return fmt.Errorf("author_close_cutoff cannot be negative (got %d)", c.AuthorCloseCutoff)
	}
	sum := c.TitleWeight + c.JournalWeight + c.YearWeight + c.AuthorWeight
	if sum > 100 {
		return fmt.Errorf("weights must sum to at most 100 (got %d)", sum)
	}
	return nil
}

// ConfigFromEnv creates a Config from environment variables, falling
// back to defaults.
//
// Environment variables:
//   - CITOV_SUBGROUP_THRESHOLD: minimum pairwise score to cluster (default: 90)
//   - CITOV_TITLE_WEIGHT: title component cap (default: 30)
//   - CITOV_JOURNAL_WEIGHT: journal component cap (default: 20)
//   - CITOV_YEAR_WEIGHT: exact year-match score (default: 20)
//   - CITOV_YEAR_ADJACENT_SCORE: score for years one apart (default: 16)
//   - CITOV_YEAR_NEAR_SCORE: score for years two apart (default: 12)
//   - CITOV_AUTHOR_WEIGHT: author component cap (default: 30)
//   - CITOV_AUTHOR_CLOSE_CUTOFF: raw-distance short-circuit (default: 5)
//
// Returns an error if any variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("CITOV_SUBGROUP_THRESHOLD", &cfg.SubgroupThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CITOV_TITLE_WEIGHT", &cfg.TitleWeight); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CITOV_JOURNAL_WEIGHT", &cfg.JournalWeight); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CITOV_YEAR_WEIGHT", &cfg.YearWeight); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CITOV_YEAR_ADJACENT_SCORE", &cfg.YearAdjacentScore); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CITOV_YEAR_NEAR_SCORE", &cfg.YearNearScore); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CITOV_AUTHOR_WEIGHT", &cfg.AuthorWeight); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CITOV_AUTHOR_CLOSE_CUTOFF", &cfg.AuthorCloseCutoff); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable.
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable.
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// Package auth resolves the Gemini API credential for a run.
package auth

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// ErrMissingKey is returned when no API key could be found anywhere.
// A run must not start without a credential.
var ErrMissingKey = errors.New("no Gemini API key found: pass --api-key or set GEMINI_API_KEY")

// GetAPIKey retrieves the Gemini API key. Priority order:
//  1. the explicitly supplied value (e.g. a --api-key flag)
//  2. GEMINI_API_KEY environment variable
//  3. GEMINI_API_KEY from a .env file in the working directory
func GetAPIKey(explicit string) (string, error) {
	if explicit != "" {
		log.Debug().Msg("Using API key supplied directly")
		return explicit, nil
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	// Best-effort .env load; a missing file is not an error.
	if err := godotenv.Load(); err == nil {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			log.Debug().Msg("Using API key from .env file")
			return key, nil
		}
	}

	return "", ErrMissingKey
}

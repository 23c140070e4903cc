package verify

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// fileSHA256 returns the hex SHA256 digest of a file.
func fileSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the digest for filename in a checksum file. A file
// holding a single bare digest applies to any name.
// Format: "abc123def456  filename.tar.gz" or "abc123def456 *filename.tar.gz"
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	var bare []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		switch len(parts) {
		case 0:
			continue
		case 1:
			bare = append(bare, parts[0])
			continue
		}

		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || path.Base(name) == filename {
			return parts[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	if len(bare) == 1 {
		return bare[0], nil
	}
	return "", fmt.Errorf("checksum not found for %s", filename)
}

// compareChecksum compares the file's digest to expected, ignoring case.
func compareChecksum(filePath, expected string) error {
	actual, err := fileSHA256(filePath)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch: actual %s, expected %s", actual, expected)
	}
	return nil
}

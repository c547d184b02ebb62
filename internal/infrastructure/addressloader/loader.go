package addressloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"credit_aggregator/internal/app/port"

	"github.com/ethereum/go-ethereum/common"
)

const defaultAddressFilePath = "data/addresses.txt"

// AddressFileLoader implements the port.AddressProvider interface by loading addresses from a file.
// One address per line; blank lines and lines starting with # are ignored.
type AddressFileLoader struct {
	filePath   string
	loggerInfo func(msg string, args ...any)
}

// NewAddressFileLoader creates a new AddressFileLoader. An empty path selects data/addresses.txt.
func NewAddressFileLoader(filePath string, loggerInfo func(msg string, args ...any)) port.AddressProvider {
	if filePath == "" {
		filePath = defaultAddressFilePath
	}
	return &AddressFileLoader{
		filePath:   filePath,
		loggerInfo: loggerInfo,
	}
}

// GetAddresses reads addresses from the configured file, skipping malformed and repeated entries.
func (l *AddressFileLoader) GetAddresses() ([]string, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open address file %s: %w", l.filePath, err)
	}
	defer file.Close()

	var addresses []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "0x") || !common.IsHexAddress(line) {
			l.info("Skipping invalid address format", "file", l.filePath, "line_number", lineNum, "address", line)
			continue
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			l.info("Skipping duplicate address", "file", l.filePath, "line_number", lineNum, "address", line)
			continue
		}
		seen[key] = struct{}{}
		addresses = append(addresses, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning address file %s: %w", l.filePath, err)
	}

	l.info("Addresses loaded successfully from file", "count", len(addresses), "path", l.filePath)
	return addresses, nil
}

func (l *AddressFileLoader) info(msg string, args ...any) {
	if l.loggerInfo != nil {
		l.loggerInfo(msg, args...)
	}
}

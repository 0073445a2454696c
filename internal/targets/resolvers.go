package targets

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// SystemResolver selects the first nameserver from resolv.conf.
const SystemResolver = "system"

var resolvConfPath = "/etc/resolv.conf"

// ResolveResolver maps the "system" keyword to the host's first configured
// nameserver. Any other value is returned unchanged.
func ResolveResolver(value string) (string, error) {
	if !strings.EqualFold(strings.TrimSpace(value), SystemResolver) {
		return value, nil
	}
	resolvers, err := loadResolvers(resolvConfPath)
	if err != nil {
		return "", fmt.Errorf("load system resolvers: %w", err)
	}
	if len(resolvers) == 0 {
		return "", fmt.Errorf("no nameserver entries in %s", resolvConfPath)
	}
	return resolvers[0], nil
}

func loadResolvers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	resolvers := []string{}
	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.ToLower(fields[0]) != "nameserver" {
			continue
		}
		key := strings.ToLower(fields[1])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		resolvers = append(resolvers, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return resolvers, nil
}

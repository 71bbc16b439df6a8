package budget

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// YNAB4 stores one snapshot of the whole budget per sync device. The names
// below are fixed by the on-disk format.
const (
	metaFile     = "Budget.ymeta"
	devicesDir   = "devices"
	deviceExt    = ".ydevice"
	snapshotName = "Budget.yfull"

	// The only format version this tool understands.
	supportedFormatVersion = "2"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrUnsupportedFormat     = errors.New("unsupported format version")
	ErrCorruptSnapshot       = errors.New("corrupt snapshot")
	ErrInconsistentKnowledge = errors.New("inconsistent device knowledge")
	ErrNoAuthoritativeDevice = errors.New("no device with full knowledge")
)

// meta mirrors the top-level Budget.ymeta record.
type meta struct {
	FormatVersion          string `json:"formatVersion"`
	RelativeDataFolderName string `json:"relativeDataFolderName"`
}

// Device mirrors one devices/*.ydevice record. Each sync device keeps a
// knowledge vector describing how much of every other device's change
// history it has incorporated.
type Device struct {
	ShortDeviceID    string `json:"shortDeviceId"`
	DeviceGUID       string `json:"deviceGUID"`
	FriendlyName     string `json:"friendlyName"`
	RawKnowledge     string `json:"knowledge"`
	HasFullKnowledge bool   `json:"hasFullKnowledge"`
}

// Knowledge parses the device's knowledge string ("A-6744,B-19,...") into a
// per-device-letter counter map.
func (d Device) Knowledge() (map[string]int, error) {
	k := make(map[string]int)
	for _, part := range strings.Split(d.RawKnowledge, ",") {
		letter, count, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("%w: device %s has malformed knowledge entry %q", ErrCorruptSnapshot, d.ShortDeviceID, part)
		}
		n, err := strconv.Atoi(count)
		if err != nil {
			return nil, fmt.Errorf("%w: device %s has non-numeric knowledge counter %q", ErrCorruptSnapshot, d.ShortDeviceID, part)
		}
		k[letter] = n
	}
	return k, nil
}

// DataDir reads Budget.ymeta under root and returns the data folder it
// declares. Only format version 2 is supported.
func DataDir(root string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(root, metaFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: no %s in %s, is this a YNAB4 budget directory?", ErrNotFound, metaFile, root)
	}
	if err != nil {
		return "", err
	}
	var m meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, metaFile, err)
	}
	if m.FormatVersion != supportedFormatVersion {
		return "", fmt.Errorf("%w: budget declares version %q, only %q is supported", ErrUnsupportedFormat, m.FormatVersion, supportedFormatVersion)
	}
	return filepath.Join(root, m.RelativeDataFolderName), nil
}

// LoadDevices reads every per-device record in the data directory, keyed by
// the record's own short id rather than the filename. Two records claiming
// the same short id with different knowledge cannot both be right, so that
// fails instead of silently picking one.
func LoadDevices(dataDir string) (map[string]Device, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, devicesDir, "*"+deviceExt))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrNotFound, deviceExt, filepath.Join(dataDir, devicesDir))
	}
	sort.Strings(files)

	devices := make(map[string]Device, len(files))
	for _, f := range files {
		raw, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		var d Device
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, filepath.Base(f), err)
		}
		if prev, ok := devices[d.ShortDeviceID]; ok && prev.RawKnowledge != d.RawKnowledge {
			return nil, fmt.Errorf("%w: two records claim device %s with knowledge %q and %q",
				ErrInconsistentKnowledge, d.ShortDeviceID, prev.RawKnowledge, d.RawKnowledge)
		}
		devices[d.ShortDeviceID] = d
	}
	return devices, nil
}

// CompletenessVector collects, for every known device, the counter that
// device reports for itself. A device is authoritative for its own letter
// only, so the union of the self-reported counters describes the latest
// change each device has ever made.
func CompletenessVector(devices map[string]Device) (map[string]int, error) {
	vector := make(map[string]int, len(devices))
	for id, d := range devices {
		k, err := d.Knowledge()
		if err != nil {
			return nil, err
		}
		self, ok := k[id]
		if !ok {
			return nil, fmt.Errorf("%w: device %s reports no counter for itself", ErrCorruptSnapshot, id)
		}
		vector[id] = self
	}
	return vector, nil
}

// FindAuthoritative returns, sorted, the short ids of every device whose
// knowledge matches the completeness vector on every known device letter.
// Such a device has incorporated the latest change of every other device and
// therefore holds a complete snapshot.
func FindAuthoritative(devices map[string]Device, vector map[string]int) ([]string, error) {
	var matched []string
	for id, d := range devices {
		k, err := d.Knowledge()
		if err != nil {
			return nil, err
		}
		complete := true
		for letter, want := range vector {
			if k[letter] != want {
				complete = false
				break
			}
		}
		if complete {
			matched = append(matched, id)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: every device is missing changes from some other device", ErrNoAuthoritativeDevice)
	}
	sort.Strings(matched)
	return matched, nil
}

// SnapshotFile returns the Budget.yfull path of the first matched device
// whose snapshot exists on disk, along with that device's record. Devices
// with identical full knowledge hold identical state, so any one of them
// will do.
func SnapshotFile(dataDir string, devices map[string]Device, matched []string) (string, Device, error) {
	for _, id := range matched {
		d := devices[id]
		path := filepath.Join(dataDir, d.DeviceGUID, snapshotName)
		if _, err := os.Stat(path); err == nil {
			return path, d, nil
		}
	}
	return "", Device{}, fmt.Errorf("%w: no %s under any of the authoritative devices %v", ErrNotFound, snapshotName, matched)
}

// Locate walks a YNAB4 budget directory and returns the path of the one
// snapshot file that is complete and safe to convert from, plus the device
// it belongs to.
func Locate(root string) (string, Device, error) {
	dataDir, err := DataDir(root)
	if err != nil {
		return "", Device{}, err
	}
	devices, err := LoadDevices(dataDir)
	if err != nil {
		return "", Device{}, err
	}
	vector, err := CompletenessVector(devices)
	if err != nil {
		return "", Device{}, err
	}
	matched, err := FindAuthoritative(devices, vector)
	if err != nil {
		return "", Device{}, err
	}
	return SnapshotFile(dataDir, devices, matched)
}

// LocateAndLoad locates the authoritative snapshot under root and decodes
// it. The returned device identifies where the snapshot came from, for
// diagnostics.
func LocateAndLoad(root string) (*Snapshot, Device, error) {
	path, device, err := Locate(root)
	if err != nil {
		return nil, Device{}, err
	}
	snapshot, err := LoadSnapshot(path)
	if err != nil {
		return nil, Device{}, err
	}
	return snapshot, device, nil
}

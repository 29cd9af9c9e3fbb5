package manifest

import (
	"encoding/json"
	"fmt"
)

type AssetObjects struct {
	Objects map[string]AssetObject `json:"objects"`
}

type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

func ParseAssetObjects(data []byte) (*AssetObjects, error) {
	var a AssetObjects
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding asset index: %w", err)
	}
	if a.Objects == nil {
		return nil, fmt.Errorf("asset index has no objects map")
	}
	return &a, nil
}

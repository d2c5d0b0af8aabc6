package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// PropertyLookup is the only thing this core needs from the property service.
type PropertyLookup interface {
	Exists(propertyID string) (bool, error)
}

// PropertyClient checks property existence against the listing service.
type PropertyClient struct {
	baseURL string
	client  *http.Client
}

func NewPropertyClient() *PropertyClient {
	viper.SetDefault("property_service.base_url", "http://localhost:8081")
	return &PropertyClient{
		baseURL: viper.GetString("property_service.base_url"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (pc *PropertyClient) Exists(propertyID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/properties/%s", pc.baseURL, url.PathEscape(propertyID))

	resp, err := pc.client.Get(endpoint)
	if err != nil {
		log.Printf("[PROPERTY] Lookup request failed for %s: %v", propertyID, err)
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("property service returned status %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}

	return result.ID != "", nil
}

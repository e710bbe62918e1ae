package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# pinstock configuration

[checker]
# How often continuous mode runs a full pass.
interval = "10m"
# Optional cron expression; overrides interval when set, e.g. "*/15 * * * *".
schedule = ""
# Concurrent workers over the product x pincode x platform matrix.
concurrency = 4
request_timeout = "30s"
max_retries = 3
retry_delay = "5s"
retry_max_delay = "60s"
backoff_factor = 2.0
# Minimum spacing between requests to the same platform.
platform_spacing = "1s"
breaker_threshold = 5
breaker_cooldown = "2m"

# [checker.platform_spacing_overrides]
# swiggy = "3s"

pincodes = ["400001", "400002"]

[products."Amul Butter 500g"]
url = "https://blinkit.com/prn/amul-butter-500g/prid/147"
platform = "blinkit"

[products."Coca Cola 600ml"]
url = "https://www.swiggy.com/instamart/item/0IFZHN76PS"
platform = "swiggy"

[alerts]
send_alerts = true
alert_on_status_change = true
alert_on_low_stock = true
alert_on_oos = true
alert_on_back_in_stock = true
alert_on_price_change = true
send_summary = false

[notifications.whatsapp]
enabled = false
# account_sid / auth_token may also come from TWILIO_ACCOUNT_SID / TWILIO_AUTH_TOKEN.
account_sid = ""
auth_token = ""
from = "+14155238886"
to = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[notifications.webhook]
enabled = false
url = ""
`

// createTemplateConfig writes a starter config.toml so a first run has
// something to edit.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}

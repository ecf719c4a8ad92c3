package agent

import (
	"net/url"
	"strings"
)

// DomainSecurityLevel определяет уровень безопасности домена
type DomainSecurityLevel int

const (
	DomainSafe     DomainSecurityLevel = iota // Безопасный домен
	DomainCritical                            // Финансы, госуслуги: переход разрешён, пользователь предупреждается
	DomainBlocked                             // Админ-панели: переход не выполняется
)

// DomainSecurity содержит информацию о безопасности домена
type DomainSecurity struct {
	Level       DomainSecurityLevel
	Description string
	Reason      string
}

var criticalDomains = map[string]string{
	// Банки
	"sberbank.ru":       "Банковские операции",
	"alfabank.ru":       "Банковские операции",
	"vtb.ru":            "Банковские операции",
	"tinkoff.ru":        "Банковские операции",
	"bankofamerica.com": "Banking operations",
	"chase.com":         "Banking operations",
	"wellsfargo.com":    "Banking operations",
	"citibank.com":      "Banking operations",

	// Платежные системы
	"paypal.com": "Payment processing",
	"stripe.com": "Payment processing",
	"square.com": "Payment processing",
	"venmo.com":  "Payment processing",
	"qiwi.com":   "Платежная система",

	// Криптовалюты
	"binance.com":  "Cryptocurrency exchange",
	"coinbase.com": "Cryptocurrency exchange",
	"kraken.com":   "Cryptocurrency exchange",

	// Государственные сервисы
	"gosuslugi.ru": "Государственные услуги",
	"nalog.gov.ru": "Налоговая служба",
	"irs.gov":      "Tax services",
}

// blockedPaths - админ-панели и системные страницы
var blockedPaths = []string{
	"/wp-admin",
	"/phpmyadmin",
	"/cpanel",
	"/administrator",
	"/admin",
}

// CheckDomainSecurity проверяет адрес перехода
func CheckDomainSecurity(urlStr string) DomainSecurity {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return DomainSecurity{Level: DomainSafe, Description: "Не удалось распарсить URL"}
	}

	host := strings.ToLower(parsedURL.Hostname())
	path := strings.ToLower(parsedURL.Path)

	for _, pattern := range blockedPaths {
		if path == pattern || strings.HasPrefix(path, pattern+"/") {
			return DomainSecurity{
				Level:       DomainBlocked,
				Description: "Админ-панель или системная страница",
				Reason:      pattern,
			}
		}
	}

	for domain, description := range criticalDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return DomainSecurity{
				Level:       DomainCritical,
				Description: description,
				Reason:      domain,
			}
		}
	}

	return DomainSecurity{Level: DomainSafe, Description: "Обычный домен"}
}

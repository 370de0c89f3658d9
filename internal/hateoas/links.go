// Package hateoas строит навигационные ссылки для ответов API.
package hateoas

import (
	"net/url"
	"strings"

	"github.com/Artexxx/employee-service/internal/dto"
)

const (
	Href = "href"
	Rel  = "rel"
	Self = "self"

	List   = "list"
	Add    = "add"
	Update = "update"
	Remove = "remove"
)

// SingleLinks строит ссылки для ответа с одним сотрудником по URI этого сотрудника.
// list и add указывают на коллекцию: часть URI до последнего '/'.
func SingleLinks(uri string) map[string]dto.Link {
	base := uri
	if i := strings.LastIndexByte(uri, '/'); i >= 0 {
		base = uri[:i]
	}

	return map[string]dto.Link{
		Self:   {Href: uri},
		List:   {Href: base},
		Add:    {Href: base},
		Update: {Href: uri},
		Remove: {Href: uri},
	}
}

// ItemLinks строит ссылки для элемента списка: маркер rel=self и прямую ссылку
// на сотрудника. Из URI коллекции отбрасываются user info, query и fragment.
func ItemLinks(collectionURI, id string) []dto.Link {
	base := collectionURI
	if u, err := url.Parse(collectionURI); err == nil {
		clean := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path, RawPath: u.RawPath}
		base = clean.String()
	}

	return []dto.Link{
		{Rel: Self},
		{Href: base + id},
	}
}

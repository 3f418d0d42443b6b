// internal/pipeline/catalog.go
//
// Vendor catalog XML. The schema is shared across chains but field names
// drift in casing and spelling between export tools, so matching is
// case-insensitive through explicit alias tables; an unrecognized top-level
// shape fails loudly instead of silently defaulting.
package pipeline

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

type catalog struct {
	ChainID    string
	SubChainID string
	StoreID    string
	BikoretNo  string
	Items      []catalogItem
}

// catalogItem keeps the raw string values; validation and typing happen when
// rows are built, where a bad value rejects the row rather than the file.
type catalogItem struct {
	Code         string
	Name         string
	Price        string
	UnitQty      string
	UnitOfMeas   string
	PriceUpdate  string
	LastSale     string
	IsWeighted   string
	QtyInPackage string
}

// header fields recognized directly under the root container
var headerAliases = map[string]string{
	"chainid":    "chain",
	"subchainid": "subchain",
	"storeid":    "store",
	"bikoretno":  "bikoret",
}

// per-item fields; keys are lowercased element names as the chains spell them
var itemAliases = map[string]string{
	"itemcode":          "code",
	"itemname":          "name",
	"itemnm":            "name",
	"itemprice":         "price",
	"unitqty":           "unitqty",
	"quantity":          "unitqty",
	"unitofmeasure":     "unitofmeasure",
	"unitmeasure":       "unitofmeasure",
	"priceupdatedate":   "priceupdate",
	"priceupdatetime":   "priceupdate",
	"lastsaledatetime":  "lastsale",
	"lastsaledate":      "lastsale",
	"bisweighted":       "isweighted",
	"isweighted":        "isweighted",
	"qtyinpackage":      "qtyinpackage",
	"qtyinpackageunits": "qtyinpackage",
}

// parseCatalog walks the XML token stream. It requires a case-insensitive
// "root" container and tolerates items appearing as a list under an Items
// element, or as bare Item elements directly under root.
func parseCatalog(r io.Reader) (*catalog, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	root, err := firstElement(dec)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(root.Name.Local, "root") {
		return nil, fmt.Errorf("unexpected top-level element %q", root.Name.Local)
	}

	cat := &catalog{}
	for _, a := range root.Attr {
		cat.setHeader(strings.ToLower(a.Name.Local), a.Value)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		name := strings.ToLower(se.Name.Local)

		if field, ok := headerAliases[name]; ok {
			var v string
			if err := dec.DecodeElement(&v, &se); err != nil {
				return nil, err
			}
			cat.setHeaderField(field, strings.TrimSpace(v))
			continue
		}
		switch name {
		case "items", "products":
			if err := parseItems(dec, &se, cat); err != nil {
				return nil, err
			}
		case "item", "product":
			it, err := parseItem(dec, &se)
			if err != nil {
				return nil, err
			}
			cat.Items = append(cat.Items, it)
		default:
			if err := dec.Skip(); err != nil && err != io.EOF {
				return nil, err
			}
		}
	}
	return cat, nil
}

func (c *catalog) setHeader(lowerName, value string) {
	if field, ok := headerAliases[lowerName]; ok {
		c.setHeaderField(field, strings.TrimSpace(value))
	}
}

func (c *catalog) setHeaderField(field, value string) {
	if value == "" {
		return
	}
	switch field {
	case "chain":
		c.ChainID = value
	case "subchain":
		c.SubChainID = value
	case "store":
		c.StoreID = value
	case "bikoret":
		c.BikoretNo = value
	}
}

func parseItems(dec *xml.Decoder, start *xml.StartElement, cat *catalog) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if strings.EqualFold(t.Name.Local, "item") || strings.EqualFold(t.Name.Local, "product") {
				it, err := parseItem(dec, &t)
				if err != nil {
					return err
				}
				cat.Items = append(cat.Items, it)
			} else if err := dec.Skip(); err != nil && err != io.EOF {
				return err
			}
		case xml.EndElement:
			if strings.EqualFold(t.Name.Local, start.Name.Local) {
				return nil
			}
		}
	}
}

func parseItem(dec *xml.Decoder, start *xml.StartElement) (catalogItem, error) {
	var it catalogItem
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return it, nil
		}
		if err != nil {
			return it, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			field, known := itemAliases[strings.ToLower(t.Name.Local)]
			var v string
			if err := dec.DecodeElement(&v, &t); err != nil {
				return it, err
			}
			if known {
				it.set(field, strings.TrimSpace(v))
			}
		case xml.EndElement:
			if strings.EqualFold(t.Name.Local, start.Name.Local) {
				return it, nil
			}
		}
	}
}

func (it *catalogItem) set(field, value string) {
	switch field {
	case "code":
		it.Code = value
	case "name":
		it.Name = value
	case "price":
		it.Price = value
	case "unitqty":
		it.UnitQty = value
	case "unitofmeasure":
		it.UnitOfMeas = value
	case "priceupdate":
		it.PriceUpdate = value
	case "lastsale":
		it.LastSale = value
	case "isweighted":
		it.IsWeighted = value
	case "qtyinpackage":
		it.QtyInPackage = value
	}
}

func firstElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("reading document: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

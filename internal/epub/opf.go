package epub

import "encoding/xml"

type container struct {
	XMLName   xml.Name   `xml:"urn:oasis:names:tc:opendocument:xmlns:container container"`
	Version   string     `xml:"version,attr"`
	Rootfiles []rootfile `xml:"rootfiles>rootfile"`
}

type rootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

type opfPackage struct {
	XMLName          xml.Name    `xml:"http://www.idpf.org/2007/opf package"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Lang             string      `xml:"xml:lang,attr,omitempty"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         []opfItem   `xml:"manifest>item"`
	Spine            opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	XmlnsDC    string       `xml:"xmlns:dc,attr"`
	Identifier opfID        `xml:"dc:identifier"`
	Title      string       `xml:"dc:title"`
	Language   string       `xml:"dc:language"`
	Creators   []opfCreator `xml:"dc:creator"`
	Meta       []opfMeta    `xml:"meta"`
}

type opfID struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type opfCreator struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type opfMeta struct {
	Property string `xml:"property,attr,omitempty"`
	Refines  string `xml:"refines,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	Itemrefs []opfItemref `xml:"itemref"`
}

type opfItemref struct {
	IDRef string `xml:"idref,attr"`
}

type ncx struct {
	XMLName  xml.Name      `xml:"http://www.daisy.org/z3986/2005/ncx/ ncx"`
	Version  string        `xml:"version,attr"`
	Meta     []ncxMeta     `xml:"head>meta"`
	DocTitle string        `xml:"docTitle>text"`
	NavMap   []ncxNavPoint `xml:"navMap>navPoint"`
}

type ncxMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type ncxNavPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     string     `xml:"navLabel>text"`
	Content   ncxContent `xml:"content"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

type navDocument struct {
	XMLName   xml.Name `xml:"http://www.w3.org/1999/xhtml html"`
	XmlnsEpub string   `xml:"xmlns:epub,attr"`
	Title     string   `xml:"head>title"`
	Nav       navBlock `xml:"body>nav"`
}

type navBlock struct {
	Type    string    `xml:"epub:type,attr"`
	ID      string    `xml:"id,attr"`
	Heading string    `xml:"h1"`
	Entries []navItem `xml:"ol>li"`
}

type navItem struct {
	Link navLink `xml:"a"`
}

type navLink struct {
	Href  string `xml:"href,attr"`
	Label string `xml:",chardata"`
}

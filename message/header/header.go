package header

import (
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/coreos/go-semver/semver"
	"github.com/zostay/go-addr/pkg/addr"

	"github.com/zostay/go-mimestream/message/header/param"
)

// Errors returned by various header methods and functions.
var (
	// ErrNoSuchField is returned by Header methods when the operation
	// being performed failed because the header named does not exist.
	ErrNoSuchField = errors.New("no such header field")

	// ErrNoSuchFieldParameter is returned by Header methods when the
	// operation being performed failed because the header exists, but a
	// sub-field of the header does not exist.
	ErrNoSuchFieldParameter = errors.New("no such header field parameter")

	// ErrManyFields is returned by Header methods when the operation
	// being performed failed because the there are multiple fields with the
	// given name.
	ErrManyFields = errors.New("many header fields found")

	// ErrWrongAddressType is returned by address setting methods that accept
	// either a string or an addr.Address when something other than those
	// types is provided.
	ErrWrongAddressType = errors.New("incorrect address type during write")
)

// These are the names of the header fields this package has helpers for.
const (
	Bcc                     = "Bcc"
	Cc                      = "Cc"
	Comments                = "Comments"
	ContentDisposition      = "Content-Disposition"
	ContentLength           = "Content-Length"
	ContentTransferEncoding = "Content-Transfer-Encoding"
	ContentType             = "Content-Type"
	Date                    = "Date"
	From                    = "From"
	InReplyTo               = "In-Reply-To"
	Keywords                = "Keywords"
	MessageID               = "Message-ID"
	MIMEVersion             = "MIME-Version"
	References              = "References"
	ReplyTo                 = "Reply-To"
	Sender                  = "Sender"
	Subject                 = "Subject"
	To                      = "To"
)

// Even more custom date formats, built from those seen in the wild that the
// usual parsers have trouble with.
const (
	// UnixDateWithEarlyYear is a weird one, eh?
	UnixDateWithEarlyYear = "Mon Jan 02 15:04:05 2006 MST"
)

// Header wraps a Base, which does the actual storage and low-level field
// manipulation. This provides methods to make reading and changing the header
// more convenient along with a cache of the complex values parsed from header
// fields.
//
// The getter methods return ErrNoSuchField if the field being fetched has not
// been set on the header.
type Header struct {
	// Base provides the low-level storage of header fields.
	Base

	// valueCache holds the semantic values parsed from fields, keyed by the
	// lowercased field name. Only immutable values may be stored here. Any
	// change made through Header drops the entry for the field changed.
	valueCache map[string]any

	addrMode AddressParserMode
}

// Clone returns a deep copy of the header object.
func (h *Header) Clone() *Header {
	vc := make(map[string]any, len(h.valueCache))
	for k, v := range h.valueCache {
		vc[k] = v
	}

	return &Header{
		Base:       h.Base.clone(),
		valueCache: vc,
		addrMode:   h.addrMode,
	}
}

// AddressParserMode returns the mode used when parsing address fields.
func (h *Header) AddressParserMode() AddressParserMode {
	return h.addrMode
}

// SetAddressParserMode changes the mode used when parsing address fields.
func (h *Header) SetAddressParserMode(mode AddressParserMode) {
	if mode != h.addrMode {
		h.valueCache = nil
	}
	h.addrMode = mode
}

// getValue retrieves the cached value. The boolean is true when an entry was
// found.
func (h *Header) getValue(name string) (any, bool) {
	v, found := h.valueCache[strings.ToLower(name)]
	return v, found
}

// setValue replaces the cached value for the given name.
func (h *Header) setValue(name string, value any) {
	if h.valueCache == nil {
		h.valueCache = make(map[string]any, h.Len())
	}
	h.valueCache[strings.ToLower(name)] = value
}

// forget drops the cached value for the given name.
func (h *Header) forget(name string) {
	delete(h.valueCache, strings.ToLower(name))
}

// InsertBeforeField works just like the one on Base, but keeps the value
// cache consistent.
func (h *Header) InsertBeforeField(n int, name, body string) error {
	h.forget(name)
	return h.Base.InsertBeforeField(n, name, body)
}

// DeleteField works just like the one on Base, but keeps the value cache
// consistent.
func (h *Header) DeleteField(n int) error {
	if f := h.GetField(n); f != nil {
		h.forget(f.Name())
	}
	return h.Base.DeleteField(n)
}

// ClearFields works just like the one on Base, but also empties the value
// cache.
func (h *Header) ClearFields() {
	h.valueCache = nil
	h.Base.ClearFields()
}

// Get retrieves the logical value of the named field, which is unfolded and
// has any encoded-words decoded.
//
// If the named field is not set in the header, it will return an empty string
// with ErrNoSuchField. If there are multiple headers for the given named field,
// it will return the first value found and return ErrManyFields.
func (h *Header) Get(name string) (string, error) {
	ixs := h.GetIndexesNamed(name)
	if len(ixs) == 0 {
		return "", ErrNoSuchField
	}

	v := h.GetField(ixs[0]).Value()
	if len(ixs) > 1 {
		return v, ErrManyFields
	}

	return v, nil
}

// GetAll fetches the logical values of all fields with the given name.
//
// It returns nil with ErrNoSuchField if no field with the given name is set on
// the header.
func (h *Header) GetAll(name string) ([]string, error) {
	fs := h.GetAllFieldsNamed(name)
	if len(fs) == 0 {
		return nil, ErrNoSuchField
	}

	bs := make([]string, len(fs))
	for i, f := range fs {
		bs[i] = f.Value()
	}

	return bs, nil
}

// Set will replace all existing header fields with the given name with a single
// header field with the given name and body. If the field already exists on the
// header, then the first occurrence will be replaced with this value and any
// other values will be deleted. If the field does not exist, it will be
// appended to the end of the header.
//
// It fails if the name is not a legal field name.
func (h *Header) Set(name, body string) error {
	h.forget(name)

	ixs := h.GetIndexesNamed(name)
	if len(ixs) == 0 {
		return h.Base.InsertBeforeField(h.Len(), name, body)
	}

	f := h.GetField(ixs[0])
	if err := f.SetName(name); err != nil {
		return err
	}
	if err := f.SetValue(body, h.FormatOptions()); err != nil {
		return err
	}

	for i := len(ixs) - 1; i > 0; i-- {
		_ = h.Base.DeleteField(ixs[i])
	}

	return nil
}

// SetAll replaces all the header fields with the given name with the
// bodies given. After a successful completion of this method, the field with
// the given name will occur exactly len(bodies) times in the header. If the
// field is already present in the header, existing fields will have their
// bodies replaced with the new values. Any new fields will be appended to the
// end of the header.
func (h *Header) SetAll(name string, bodies ...string) error {
	h.forget(name)

	ixs := h.GetIndexesNamed(name)
	for i, b := range bodies {
		if i < len(ixs) {
			if err := h.GetField(ixs[i]).SetValue(b, h.FormatOptions()); err != nil {
				return err
			}
			continue
		}

		if err := h.Base.InsertBeforeField(h.Len(), name, b); err != nil {
			return err
		}
	}

	for i := len(ixs) - 1; i >= len(bodies); i-- {
		_ = h.Base.DeleteField(ixs[i])
	}

	return nil
}

// ParseTime provides the time parsing used by GetTime() and GetDate(). This
// will attempt to parse the date using the format specified by RFC 5322 first
// and fallback to parsing it in many other formats.
func ParseTime(body string) (time.Time, error) {
	t, err := mail.ParseDate(body)
	if err == nil {
		return t, nil
	}

	t, err = dateparse.ParseAny(body)
	if err == nil {
		return t, nil
	}

	t, err = time.Parse(UnixDateWithEarlyYear, body)
	if err == nil {
		return t, nil
	}

	return t, fmt.Errorf("time string %q cannot be parsed", body)
}

// GetTime gets the given date header field as a time.Time. It will attempt to
// parse the date in many formats, not just the format specified by RFC 5322
// (though, it will try that first).
//
// It returns the zero value and ErrNoSuchField if the header does not exist.
// It returns the parsed time of the first field and ErrManyFields if more than
// one field with the name is set.
func (h *Header) GetTime(name string) (time.Time, error) {
	if t, isTime := cached[time.Time](h, name); isTime {
		return t, nil
	}

	body, err := h.Get(name)
	if err != nil && !errors.Is(err, ErrManyFields) {
		return time.Time{}, err
	}

	t, perr := ParseTime(body)
	if perr != nil {
		return t, perr
	}

	if err == nil {
		h.setValue(name, t)
	}

	return t, err
}

// cached returns the cached value for the name if it has the wanted type.
func cached[T any](h *Header, name string) (T, bool) {
	var zero T
	v, found := h.getValue(name)
	if !found {
		return zero, false
	}

	t, ok := v.(T)
	return t, ok
}

// GetAddressList returns an addr.AddressList for the named field. How
// forgiving the parse is depends on AddressParserMode(). In the default mode,
// no error is ever returned for a bad address, so a badly formatted field may
// give a weird answer.
//
// It will return nil and ErrNoSuchField if the field is not set on the header.
// It will return ErrManyFields if the field is set more than once on the
// header.
func (h *Header) GetAddressList(name string) (addr.AddressList, error) {
	if al, ok := cached[addr.AddressList](h, name); ok {
		return al, nil
	}

	body, err := h.Get(name)
	if err != nil {
		return nil, err
	}

	al, err := ParseAddressListMode(body, h.addrMode)
	if err != nil {
		return nil, err
	}

	h.setValue(name, al)
	return al, nil
}

// GetAllAddressLists returns an addr.AddressList for each field with the given
// name.
//
// If the named field does not exist in the header, this will return nil with
// ErrNoSuchField.
func (h *Header) GetAllAddressLists(name string) ([]addr.AddressList, error) {
	if als, ok := cached[[]addr.AddressList](h, name); ok {
		return als, nil
	}

	bs, err := h.GetAll(name)
	if err != nil {
		return nil, err
	}

	als := make([]addr.AddressList, 0, len(bs))
	for _, b := range bs {
		al, err := ParseAddressListMode(b, h.addrMode)
		if err != nil {
			return nil, err
		}
		als = append(als, al)
	}

	h.setValue(name, als)
	return als, nil
}

// GetParamValue returns a param.Value for the header field matching the given
// name.
//
// A damaged value still results in a param.Value, returned along with the
// parse error. This returns ErrNoSuchField if no field with the given name is
// present and ErrManyFields with the value of the first if more than one field
// with the given name is found.
func (h *Header) GetParamValue(name string) (*param.Value, error) {
	if pv, ok := cached[*param.Value](h, name); ok {
		return pv.Clone(), nil
	}

	body, err := h.Get(name)
	if err != nil && !errors.Is(err, ErrManyFields) {
		return nil, err
	}

	parse := param.Parse
	if strings.EqualFold(name, ContentType) {
		parse = param.ParseMediaType
	}

	pv, perr := parse(body)
	if perr != nil {
		return pv, perr
	}

	if err == nil {
		h.setValue(name, pv)
	}

	return pv.Clone(), err
}

// GetKeywordsList returns all the keywords set on every field with the given
// name. Each field is a comma-separated list.
//
// This method will return nil with ErrNoSuchField if the named field does not
// exist.
func (h *Header) GetKeywordsList(name string) ([]string, error) {
	if ks, ok := cached[[]string](h, name); ok {
		return ks, nil
	}

	bs, err := h.GetAll(name)
	if err != nil {
		return nil, err
	}

	ks := make([]string, 0, len(bs)*2)
	for _, b := range bs {
		for _, k := range strings.Split(b, ",") {
			if k = strings.TrimSpace(k); k != "" {
				ks = append(ks, k)
			}
		}
	}

	h.setValue(name, ks)
	return ks, nil
}

// SetKeywordsList replaces all fields with the given name with one field
// listing all the keywords separated by commas.
func (h *Header) SetKeywordsList(name string, keywords ...string) error {
	if err := h.Set(name, strings.Join(keywords, ", ")); err != nil {
		return err
	}
	h.setValue(name, keywords)
	return nil
}

// SetTime replaces all fields with the given name with a single field holding
// the time formatted via time.RFC1123Z.
func (h *Header) SetTime(name string, body time.Time) error {
	if err := h.Set(name, body.Format(time.RFC1123Z)); err != nil {
		return err
	}
	h.setValue(name, body)
	return nil
}

// SetAddressList replaces all fields with the given name with a single field
// holding the given addresses.
func (h *Header) SetAddressList(name string, body ...addr.Address) error {
	al := addr.AddressList(body)
	if err := h.Set(name, al.String()); err != nil {
		return err
	}
	h.setValue(name, al)
	return nil
}

// SetAllAddressLists replaces all fields with the given name with one field
// per address list.
func (h *Header) SetAllAddressLists(name string, bodies ...addr.AddressList) error {
	strs := make([]string, len(bodies))
	for i, body := range bodies {
		strs[i] = body.String()
	}

	if err := h.SetAll(name, strs...); err != nil {
		return err
	}
	h.setValue(name, bodies)
	return nil
}

// SetParamValue replaces all fields with the given name with a single field
// holding the given param.Value.
func (h *Header) SetParamValue(name string, body *param.Value) error {
	if err := h.Set(name, body.String()); err != nil {
		return err
	}
	h.setValue(name, body.Clone())
	return nil
}

// getParamValueParam gets a parameter of a parameterized field.
func (h *Header) getParamValueParam(name, p string) (string, error) {
	pv, err := h.GetParamValue(name)
	if pv == nil {
		return "", err
	}

	if !pv.Has(p) {
		return "", ErrNoSuchFieldParameter
	}

	return pv.Parameter(p), err
}

// setParamValueValue sets the primary value of a parameterized field, keeping
// any parameters it already has.
func (h *Header) setParamValueValue(name, v string) error {
	pv, err := h.GetParamValue(name)
	if pv == nil || errors.Is(err, ErrNoSuchField) {
		pv = param.New(v)
	} else {
		pv = param.Modify(pv, param.Change(v))
	}

	return h.SetParamValue(name, pv)
}

// setParamValueParam sets a parameter of a parameterized field. The field
// must already exist.
func (h *Header) setParamValueParam(name, p, v string) error {
	pv, err := h.GetParamValue(name)
	if pv == nil {
		return err
	}

	return h.SetParamValue(name, param.Modify(pv, param.Set(p, v)))
}

// GetContentType returns the Content-Type header as a param.Value.
func (h *Header) GetContentType() (*param.Value, error) {
	return h.GetParamValue(ContentType)
}

// SetContentType replaces the Content-Type with the given param.Value.
func (h *Header) SetContentType(v *param.Value) error {
	return h.SetParamValue(ContentType, v)
}

// GetMediaType returns the MIME type set in the Content-Type header.
func (h *Header) GetMediaType() (string, error) {
	pv, err := h.GetParamValue(ContentType)
	if pv == nil {
		return "", err
	}
	return pv.MediaType(), err
}

// SetMediaType replaces the MIME type on the Content-Type header, creating it
// if it has not been set yet. Any other parameters already set are preserved.
func (h *Header) SetMediaType(mt string) error {
	return h.setParamValueValue(ContentType, mt)
}

// GetCharset gets the charset parameter of the Content-Type header field. It
// returns ErrNoSuchFieldParameter if the field is present, but the parameter
// is not.
func (h *Header) GetCharset() (string, error) {
	return h.getParamValueParam(ContentType, param.Charset)
}

// SetCharset sets the charset on the Content-Type header, which must already
// be present.
func (h *Header) SetCharset(c string) error {
	return h.setParamValueParam(ContentType, param.Charset, c)
}

// GetBoundary gets the boundary parameter of the Content-Type header field.
func (h *Header) GetBoundary() (string, error) {
	return h.getParamValueParam(ContentType, param.Boundary)
}

// SetBoundary sets the boundary on the Content-Type header, which must already
// be present.
func (h *Header) SetBoundary(b string) error {
	return h.setParamValueParam(ContentType, param.Boundary, b)
}

// GetContentDisposition returns the Content-Disposition header as a
// param.Value.
func (h *Header) GetContentDisposition() (*param.Value, error) {
	return h.GetParamValue(ContentDisposition)
}

// SetContentDisposition sets the Content-Disposition to a new value.
func (h *Header) SetContentDisposition(v *param.Value) error {
	return h.SetParamValue(ContentDisposition, v)
}

// GetPresentation returns the disposition of the Content-Disposition header,
// such as "inline" or "attachment".
func (h *Header) GetPresentation() (string, error) {
	pv, err := h.GetParamValue(ContentDisposition)
	if pv == nil {
		return "", err
	}
	return pv.Disposition(), err
}

// SetPresentation sets the disposition of the Content-Disposition header,
// preserving any parameters already set.
func (h *Header) SetPresentation(d string) error {
	return h.setParamValueValue(ContentDisposition, d)
}

// GetFilename gets the filename parameter of the Content-Disposition header.
func (h *Header) GetFilename() (string, error) {
	return h.getParamValueParam(ContentDisposition, param.Filename)
}

// SetFilename sets the filename parameter of the Content-Disposition header,
// which must already be present.
func (h *Header) SetFilename(f string) error {
	return h.setParamValueParam(ContentDisposition, param.Filename, f)
}

// GetDate retrieves the Date header as a time.Time value.
func (h *Header) GetDate() (time.Time, error) {
	return h.GetTime(Date)
}

// SetDate updates the Date header from the given time.Time value.
func (h *Header) SetDate(d time.Time) error {
	return h.SetTime(Date, d)
}

// GetSubject returns the value of the Subject header field.
func (h *Header) GetSubject() (string, error) {
	return h.Get(Subject)
}

// SetSubject replaces the Subject header field.
func (h *Header) SetSubject(s string) error {
	return h.Set(Subject, s)
}

// setAddress sets an address field from strings or addr.Address values.
// Strings must parse strictly.
func (h *Header) setAddress(n string, as []any) error {
	al := make(addr.AddressList, 0, len(as))
	for _, a := range as {
		switch v := a.(type) {
		case string:
			add, err := addr.ParseEmailAddress(v)
			if err != nil {
				return err
			}
			al = append(al, add)
		case addr.Address:
			al = append(al, v)
		default:
			return ErrWrongAddressType
		}
	}
	return h.SetAddressList(n, al...)
}

// GetTo returns the To address field as an addr.AddressList.
func (h *Header) GetTo() (addr.AddressList, error) {
	return h.GetAddressList(To)
}

// SetTo sets the To address field from strings or addr.Address values.
func (h *Header) SetTo(a ...any) error {
	return h.setAddress(To, a)
}

// GetCc returns the Cc address field as an addr.AddressList.
func (h *Header) GetCc() (addr.AddressList, error) {
	return h.GetAddressList(Cc)
}

// SetCc sets the Cc address field from strings or addr.Address values.
func (h *Header) SetCc(a ...any) error {
	return h.setAddress(Cc, a)
}

// GetBcc returns the Bcc address field as an addr.AddressList.
func (h *Header) GetBcc() (addr.AddressList, error) {
	return h.GetAddressList(Bcc)
}

// SetBcc sets the Bcc address field from strings or addr.Address values.
func (h *Header) SetBcc(a ...any) error {
	return h.setAddress(Bcc, a)
}

// GetFrom returns the From address field as an addr.AddressList.
func (h *Header) GetFrom() (addr.AddressList, error) {
	return h.GetAddressList(From)
}

// SetFrom sets the From address field from strings or addr.Address values.
func (h *Header) SetFrom(a ...any) error {
	return h.setAddress(From, a)
}

// GetReplyTo returns the Reply-To address field as an addr.AddressList.
func (h *Header) GetReplyTo() (addr.AddressList, error) {
	return h.GetAddressList(ReplyTo)
}

// SetReplyTo sets the Reply-To address field from strings or addr.Address
// values.
func (h *Header) SetReplyTo(a ...any) error {
	return h.setAddress(ReplyTo, a)
}

// GetSender returns the Sender address field as an addr.AddressList.
func (h *Header) GetSender() (addr.AddressList, error) {
	return h.GetAddressList(Sender)
}

// SetSender sets the Sender address field from strings or addr.Address values.
func (h *Header) SetSender(a ...any) error {
	return h.setAddress(Sender, a)
}

// GetKeywords returns all the keywords set on all the Keywords fields.
func (h *Header) GetKeywords() ([]string, error) {
	return h.GetKeywordsList(Keywords)
}

// SetKeywords sets keywords on the Keywords header.
func (h *Header) SetKeywords(ks ...string) error {
	return h.SetKeywordsList(Keywords, ks...)
}

// GetComments returns the content of the Comments header fields.
func (h *Header) GetComments() ([]string, error) {
	return h.GetAll(Comments)
}

// SetComments replaces all Comments fields with the given bodies.
func (h *Header) SetComments(cs ...string) error {
	return h.SetAll(Comments, cs...)
}

// GetReferences returns the message ids of the References header.
func (h *Header) GetReferences() ([]string, error) {
	v, err := h.Get(References)
	if err != nil && !errors.Is(err, ErrManyFields) {
		return nil, err
	}
	return strings.Fields(v), err
}

// SetReferences sets the message ids of the References header.
func (h *Header) SetReferences(refs ...string) error {
	return h.Set(References, strings.Join(refs, " "))
}

// GetInReplyTo returns the message id in the In-Reply-To header.
func (h *Header) GetInReplyTo() (string, error) {
	return h.Get(InReplyTo)
}

// SetInReplyTo sets the message id in the In-Reply-To header.
func (h *Header) SetInReplyTo(ref string) error {
	return h.Set(InReplyTo, ref)
}

// GetMessageID returns the Message-ID header.
func (h *Header) GetMessageID() (string, error) {
	return h.Get(MessageID)
}

// SetMessageID sets the Message-ID header.
func (h *Header) SetMessageID(ref string) error {
	return h.Set(MessageID, ref)
}

// GetTransferEncoding returns the Content-Transfer-Encoding, lowercased with
// any comment removed.
func (h *Header) GetTransferEncoding() (string, error) {
	v, err := h.Get(ContentTransferEncoding)
	if err != nil && !errors.Is(err, ErrManyFields) {
		return "", err
	}

	v, _ = extractComments(v)
	return strings.ToLower(strings.TrimSpace(v)), err
}

// SetTransferEncoding replaces the Content-Transfer-Encoding with the given
// value.
func (h *Header) SetTransferEncoding(b string) error {
	return h.Set(ContentTransferEncoding, b)
}

// GetContentLength returns the value of the Content-Length header. It returns
// an error if the value is not a non-negative integer.
func (h *Header) GetContentLength() (int64, error) {
	v, err := h.Get(ContentLength)
	if err != nil && !errors.Is(err, ErrManyFields) {
		return 0, err
	}

	n, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if perr != nil || n < 0 {
		return 0, fmt.Errorf("bad Content-Length %q", v)
	}

	return n, err
}

// SetContentLength sets the Content-Length header.
func (h *Header) SetContentLength(n int64) error {
	return h.Set(ContentLength, strconv.FormatInt(n, 10))
}

// GetMIMEVersion returns the MIME-Version header as a semantic version. A
// version written as "1.0" is read as 1.0.0. Comments are ignored.
func (h *Header) GetMIMEVersion() (*semver.Version, error) {
	if v, ok := cached[*semver.Version](h, MIMEVersion); ok {
		return v, nil
	}

	body, err := h.Get(MIMEVersion)
	if err != nil {
		return nil, err
	}

	body, _ = extractComments(body)
	parts := strings.Split(strings.Join(strings.Fields(body), ""), ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}

	v, err := semver.NewVersion(strings.Join(parts, "."))
	if err != nil {
		return nil, fmt.Errorf("bad MIME-Version %q: %w", body, err)
	}

	h.setValue(MIMEVersion, v)
	return v, nil
}

// SetMIMEVersion sets the MIME-Version header, normally to "1.0".
func (h *Header) SetMIMEVersion(v string) error {
	return h.Set(MIMEVersion, v)
}

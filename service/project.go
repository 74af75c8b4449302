package service

import (
	"html"
	"strconv"
	"strings"

	"github.com/k2field/worklistbroker/result"
	"github.com/k2field/worklistbroker/schema"
	"github.com/k2field/worklistbroker/workflow"
)

const (
	linkPrefix = "<hyperlink><link>"
	linkSuffix = "</link><display>Open</display></hyperlink>"
)

// LinkMarkup wraps the HTML-escaped data payload in hyperlink markup.
func LinkMarkup(data string) string {
	return linkPrefix + html.EscapeString(data) + linkSuffix
}

// LinkData returns the raw data payload of hyperlink markup.
func LinkData(markup string) (string, bool) {
	if !strings.HasPrefix(markup, linkPrefix) || !strings.HasSuffix(markup, linkSuffix) {
		return "", false
	}
	return html.UnescapeString(markup[len(linkPrefix) : len(markup)-len(linkSuffix)]), true
}

// Projector maps a worklist entry to a row.
type Projector func(item *workflow.Item) result.Row

// ProjectBasic maps the fields common to all worklist item objects.
func ProjectBasic(item *workflow.Item) result.Row {
	return result.Row{
		PropAllocatedUser:                 item.AllocatedUser,
		PropData:                          item.Data,
		PropID:                            item.ID,
		PropLink:                          LinkMarkup(item.Data),
		PropSerialNumber:                  item.SerialNumber,
		PropStatus:                        string(item.Status),
		PropActivityID:                    item.ActivityInstanceDestination.ActID,
		PropActivityInstanceID:            item.ActivityInstanceDestination.ActInstID,
		PropActivityInstanceDestinationID: item.ActivityInstanceDestination.ID,
		PropActivityName:                  item.ActivityInstanceDestination.Name,
		PropPriority:                      strconv.Itoa(item.ActivityInstanceDestination.Priority),
		PropStartDate:                     item.EventInstance.StartDate,
		PropProcessInstanceID:             item.ProcessInstance.ID,
		PropProcessFullName:               item.ProcessInstance.FullName,
		PropProcessName:                   item.ProcessInstance.Name,
		PropFolio:                         item.ProcessInstance.Folio,
		PropEventInstanceName:             item.EventInstance.Name,
	}
}

// ProjectDetailed extends ProjectBasic with activity and process details.
func ProjectDetailed(item *workflow.Item) result.Row {
	row := ProjectBasic(item)
	row[PropActivityDescription] = item.ActivityInstanceDestination.Description
	row[PropActivityMetaData] = item.ActivityInstanceDestination.MetaData
	row[PropActivityExpectedDuration] = item.ActivityInstanceDestination.ExpectedDuration
	row[PropProcessDescription] = item.ProcessInstance.Description
	row[PropProcessMetaData] = item.ProcessInstance.MetaData
	row[PropProcessPriority] = strconv.Itoa(item.ProcessInstance.Priority)
	row[PropProcessInstanceStartDate] = item.ProcessInstance.StartDate
	return row
}

// newItemTable creates the result table of a worklist item method: the
// declared return properties plus ProcessName.
func newItemTable(obj *schema.Object, m *schema.Method) (*result.Table, error) {
	t, err := result.FromProperties(obj.Name(), m.Return)
	if err != nil {
		return nil, err
	}
	if !t.HasColumn(PropProcessName) {
		p, _ := obj.Property(PropProcessName)
		if p == nil {
			return t, nil
		}
		if err = t.AddColumn(result.Column{Name: p.Name, Type: p.Type}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// addRow appends the columns of row that t has.
func addRow(t *result.Table, row result.Row) error {
	out := make(result.Row, len(t.Columns))
	for _, c := range t.Columns {
		if v, ok := row[c.Name]; ok {
			out[c.Name] = v
		}
	}
	return t.AddRow(out)
}

package service

import (
	"github.com/k2field/worklistbroker/schema"
)

// Object names.
const (
	BasicWorklistItem    = "BasicWorklistItem"
	DetailedWorklistItem = "DetailedWorklistItem"
	WorklistItemAction   = "WorklistItemAction"
)

// Method names.
const (
	GetWorklistItems                = "GetWorklistItems"
	LoadWorklistItem                = "LoadWorklistItem"
	GetWorklistItemActions          = "GetWorklistItemActions"
	RedirectWorklistItem            = "RedirectWorklistItem"
	RedirectManagedUserWorklistItem = "RedirectManagedUserWorklistItem"
	ActionWorklistItem              = "ActionWorklistItem"
	OpenWorklistItem                = "OpenWorklistItem"
	ReleaseWorklistItem             = "ReleaseWorklistItem"
)

// Property and parameter names.
const (
	PropAllocatedUser                 = "AllocatedUser"
	PropData                          = "Data"
	PropID                            = "ID"
	PropSerialNumber                  = "SerialNumber"
	PropStatus                        = "Status"
	PropLink                          = "Link"
	PropActivityID                    = "ActivityID"
	PropActivityInstanceID            = "ActivityInstanceID"
	PropActivityInstanceDestinationID = "ActivityInstanceDestinationID"
	PropActivityName                  = "ActivityName"
	PropPriority                      = "Priority"
	PropStartDate                     = "StartDate"
	PropProcessInstanceID             = "ProcessInstanceID"
	PropProcessFullName               = "ProcessFullName"
	PropProcessName                   = "ProcessName"
	PropFolio                         = "Folio"
	PropEventInstanceName             = "EventInstanceName"
	PropUserName                      = "UserName"

	PropActivityDescription      = "ActivityDescription"
	PropActivityMetaData         = "ActivityMetaData"
	PropActivityExpectedDuration = "ActivityExpectedDuration"
	PropProcessDescription       = "ProcessDescription"
	PropProcessMetaData          = "ProcessMetaData"
	PropProcessExpectedDuration  = "ProcessExpectedDuration"
	PropProcessPriority          = "ProcessPriority"
	PropProcessInstanceStartDate = "ProcessInstanceStartDate"

	PropActionName   = "ActionName"
	PropErrorMessage = "ErrorMessageBlankIfNoError"

	ParamUserName        = "UserName"
	ParamManagedUserName = "ManagedUserName"
)

var itemReturns = []string{
	PropAllocatedUser,
	PropData,
	PropID,
	PropLink,
	PropSerialNumber,
	PropStatus,
	PropActivityID,
	PropActivityInstanceID,
	PropActivityInstanceDestinationID,
	PropActivityName,
	PropPriority,
	PropStartDate,
	PropProcessInstanceID,
	PropProcessFullName,
	PropFolio,
	PropEventInstanceName,
}

// ProcessExpectedDuration is described but never returned.
var detailedReturns = []string{
	PropActivityDescription,
	PropActivityMetaData,
	PropActivityExpectedDuration,
	PropProcessDescription,
	PropProcessMetaData,
	PropProcessPriority,
	PropProcessInstanceStartDate,
}

// basicBuilder returns the builder of the BasicWorklistItem object.
func basicBuilder() *schema.Builder {
	b := schema.NewBuilder(BasicWorklistItem).
		Describe("Basic Worklist Item", "Represents a Basic WorklistItem").
		// worklist item
		AddProperty(PropAllocatedUser, schema.Text, "Allocated User", "AllocatedUser").
		AddProperty(PropData, schema.Text, "Data", "Data").
		AddProperty(PropID, schema.AutoNumber, "ID", "ID").
		AddProperty(PropSerialNumber, schema.Text, "SerialNumber", "SerialNumber").
		AddProperty(PropStatus, schema.Text, "Status", "Status").
		AddProperty(PropLink, schema.HyperLink, "Link", "Link").
		// activity instance destination
		AddProperty(PropActivityID, schema.Number, "Activity ID", "Activity ID").
		AddProperty(PropActivityInstanceID, schema.Number, "Activity Instance ID", "Activity Instance ID").
		AddProperty(PropActivityInstanceDestinationID, schema.Number, "Activity Instance Destination ID", "Activity Instance Destination ID").
		AddProperty(PropActivityName, schema.Text, "Activity Name", "Activity Name").
		AddProperty(PropPriority, schema.Text, "Priority", "Priority").
		AddProperty(PropStartDate, schema.DateTime, "StartDate", "StartDate").
		// process instance
		AddProperty(PropProcessInstanceID, schema.Number, "Process Instance ID", "Process Instance ID").
		AddProperty(PropProcessFullName, schema.Text, "Process Full Name", "Process Full Name").
		AddProperty(PropProcessName, schema.Text, "Process Name", "Process Name").
		AddProperty(PropFolio, schema.Text, "Folio", "Folio").
		// event instance
		AddProperty(PropEventInstanceName, schema.Text, "Event Instance Name", "Event Instance Name").
		AddProperty(PropUserName, schema.Text, "User Name", "User Name")

	b.AddMethod(GetWorklistItems, schema.List, "Get Worklist Items", "Returns a collection of worklist items.").
		Input(
			PropStatus,
			PropActivityName,
			PropProcessName,
			PropProcessFullName,
			PropFolio,
			PropEventInstanceName,
			PropPriority,
			PropUserName,
		).
		Return(itemReturns...)

	b.AddMethod(LoadWorklistItem, schema.Read, "Load Worklist Item", "Returns the specified worklist item.").
		Require(PropSerialNumber).
		Input(PropSerialNumber, PropUserName).
		Return(itemReturns...)

	return b
}

// detailedBuilder extends the BasicWorklistItem builder with activity
// and process instance details.
func detailedBuilder() *schema.Builder {
	b := basicBuilder().
		Rename(DetailedWorklistItem).
		Describe("Detailed Worklist Item", "Represents a Detailed Worklist Item.").
		AddProperty(PropActivityDescription, schema.Text, "Activity Description", "Activity Description").
		AddProperty(PropActivityMetaData, schema.Text, "Activity MetaData", "Activity MetaData").
		AddProperty(PropActivityExpectedDuration, schema.Number, "Activity Expected Duration", "Activity Expected Duration").
		AddProperty(PropProcessDescription, schema.Text, "Process Description", "Process Description").
		AddProperty(PropProcessMetaData, schema.Text, "Process MetaData", "Process Meta Data").
		AddProperty(PropProcessExpectedDuration, schema.Number, "Process Expected Duration", "Process Expected Duration").
		AddProperty(PropProcessPriority, schema.Text, "Process Priority", "Process Priority").
		AddProperty(PropProcessInstanceStartDate, schema.DateTime, "Process Instance Start Date", "Process Instance Start Date")

	b.Method(GetWorklistItems).Return(detailedReturns...)
	b.Method(LoadWorklistItem).Return(detailedReturns...)
	return b
}

func actionBuilder() *schema.Builder {
	b := schema.NewBuilder(WorklistItemAction).
		Describe("Worklist Item Action", "Used for to perform actions on worklist items").
		AddProperty(PropActionName, schema.Text, "ActionName", "ActionName").
		AddProperty(PropSerialNumber, schema.Text, "Serial Number", "SerialNumber").
		AddProperty(PropErrorMessage, schema.Text, "ErrorMessage", "Error Message which is Blank if there is No Error")

	b.AddMethod(GetWorklistItemActions, schema.List, "Get Worklist Item Actions", "Returns a collection of worklist item actions.").
		Require(PropSerialNumber).
		Input(PropSerialNumber).
		Return(PropActionName)

	b.AddMethod(RedirectWorklistItem, schema.Execute, "Redirect Worklist Item", "").
		Require(PropSerialNumber).
		Input(PropSerialNumber).
		Param(ParamUserName, schema.Text, true, "User Name")

	b.AddMethod(RedirectManagedUserWorklistItem, schema.Execute, "Redirect Managed User Worklist Item", "").
		Require(PropSerialNumber).
		Input(PropSerialNumber).
		Param(ParamManagedUserName, schema.Text, true, "Managed User Name").
		Param(ParamUserName, schema.Text, true, "User Name")

	b.AddMethod(ActionWorklistItem, schema.Execute, "Action Worklist Item", "").
		Require(PropSerialNumber, PropActionName).
		Input(PropSerialNumber, PropActionName)

	b.AddMethod(OpenWorklistItem, schema.Execute, "Open Worklist Item", "").
		Require(PropSerialNumber).
		Input(PropSerialNumber).
		Return(PropErrorMessage)

	b.AddMethod(ReleaseWorklistItem, schema.Execute, "Release Worklist Item", "").
		Require(PropSerialNumber).
		Input(PropSerialNumber).
		Return(PropErrorMessage)

	return b
}

// DescribeBasic returns the BasicWorklistItem descriptor.
func DescribeBasic() (*schema.Object, error) {
	return basicBuilder().Build()
}

// DescribeDetailed returns the DetailedWorklistItem descriptor.
func DescribeDetailed() (*schema.Object, error) {
	return detailedBuilder().Build()
}

// DescribeAction returns the WorklistItemAction descriptor.
func DescribeAction() (*schema.Object, error) {
	return actionBuilder().Build()
}
